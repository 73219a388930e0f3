// internal/models/heroes.go
package models

// HeroIDs is the fixed universe of draftable heroes. Every pick and ban
// consumes exactly one entry; no hero may appear twice within a session.
var HeroIDs = []string{
	"aldric", "briar", "caldera", "dashiel",
	"ember", "fenwick", "galatea", "hale",
	"isolde", "juniper", "kestrel", "lazrus",
	"maeve", "nyx", "orin", "petra",
	"quill", "ravenna", "soren", "thistle",
	"ulric", "vesper", "wren", "xanthe",
	"yara", "zephyr", "ashgrove", "bastion",
	"cinder", "draven", "elowen", "frost",
}
