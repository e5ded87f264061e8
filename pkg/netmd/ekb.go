package netmd

import "bytes"

// EKB is an exchange key block used to bootstrap a secure session
type EKB struct {
	Name      string
	RootKey   []byte
	ID        uint32
	Chain     [][]byte
	Depth     int
	Signature []byte

	// Match reports whether the block applies to a device
	Match func(leafID []byte, vendor, product uint16) bool
}

// ProductSonyDeck is the product ID shared by the Sony decks (JB980, JE780, NT1)
const ProductSonyDeck = 0x0081

// CorruptedDeckEKB recovers Sony decks whose leaf ID has been wiped
var CorruptedDeckEKB = EKB{
	Name:    "corrupted-deck",
	RootKey: []byte("WMDPWMDPMiniDisc"),
	ID:      0x13371337,
	Chain: [][]byte{
		{0xb1, 0xd4, 0xaf, 0xfa, 0x80, 0xa0, 0xc9, 0x03, 0xc2, 0x58, 0x4b, 0x1b, 0x44, 0xaf, 0xc4, 0xa6},
	},
	Depth: 9,
	Signature: []byte{
		0x6c, 0x2b, 0xc2, 0x8c, 0x45, 0x2b, 0x54, 0xf1, 0xc3, 0x59, 0x72, 0x3b,
		0xe3, 0x19, 0x1f, 0x55, 0x17, 0x25, 0x64, 0x0e, 0x65, 0x8c, 0x81, 0x0b,
	},
	Match: func(leafID []byte, vendor, product uint16) bool {
		// An empty leaf ID counts as wiped.
		return len(bytes.Trim(leafID, "\xff")) == 0 &&
			vendor == VendorSony && product == ProductSonyDeck
	},
}

// OpenSourceEKB is the default key block accepted by every NetMD device
var OpenSourceEKB = EKB{
	Name: "open-source",
	RootKey: []byte{
		0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0,
		0x0f, 0xed, 0xcb, 0xa9, 0x87, 0x65, 0x43, 0x21,
	},
	ID: 0x26422642,
	Chain: [][]byte{
		{0x25, 0x45, 0x06, 0x4d, 0xea, 0xca, 0x14, 0xf9, 0x96, 0xbd, 0xc8, 0xa4, 0x06, 0xc2, 0x2b, 0x81},
		{0xfb, 0x60, 0xbd, 0xdd, 0x0d, 0xbc, 0xab, 0x84, 0x8a, 0x00, 0x5e, 0x03, 0x19, 0x4d, 0x3e, 0xda},
	},
	Depth: 9,
	Signature: []byte{
		0x8f, 0x2b, 0xc3, 0x52, 0xe8, 0x6c, 0x5e, 0xd3, 0x06, 0xdc, 0xae, 0x18,
		0xd2, 0xf3, 0x8c, 0x7f, 0x89, 0xb5, 0xe1, 0x85, 0x55, 0xa1, 0x05, 0xea,
	},
	Match: func([]byte, uint16, uint16) bool { return true },
}

// EKBs lists the known key blocks in priority order
var EKBs = []EKB{CorruptedDeckEKB, OpenSourceEKB}

// SelectEKB returns the first key block in candidates matching the device
func SelectEKB(candidates []EKB, leafID []byte, vendor, product uint16) (EKB, error) {
	for _, ekb := range candidates {
		if ekb.Match != nil && ekb.Match(leafID, vendor, product) {
			return ekb, nil
		}
	}
	return EKB{}, ErrNoMatchingEKB
}
