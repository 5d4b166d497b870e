package model

// Version is the POF format version code, in the wire's own "major*100 +
// minor" integer encoding (e.g. 2117 means 21.17). It is totally ordered
// by plain integer comparison, which is all the format's version gates
// ever need.
type Version int32

// Named thresholds that gate optional wire fields (see pof package).
const (
	// V21_17 adds ThrusterBank.Properties and is the last version whose
	// shield-tree node tag is a u8; later versions use a u32 tag.
	V21_17 Version = 2117
	// V22_00 is the first version allowed to carry an SLC2 shield-tree
	// chunk (the u32-tagged encoding).
	V22_00 Version = 2200
	// V22_01 adds the trailing Offset float32 to WeaponHardpoint.
	V22_01 Version = 2201
)

// MinVersion and MaxVersion bound the versions this parser recognizes.
// The wire format does not enumerate a discrete allow-list; every
// integer in this inclusive range is a version FreeSpace-family tools
// have shipped, so it is treated as "known" for UnknownVersion purposes.
const (
	MinVersion Version = 2000
	MaxVersion Version = 2201
)

// Known reports whether v falls within the recognized version range.
func (v Version) Known() bool { return v >= MinVersion && v <= MaxVersion }
