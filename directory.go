package df1

// ProcessorFamily identifies the processor-family byte returned in byte 9
// of a PCCC "get status" reply.
type ProcessorFamily uint8

const (
	FamilySLC501       ProcessorFamily = 0x18
	FamilyFixedSLC500   ProcessorFamily = 0x1a
	FamilySLC502        ProcessorFamily = 0x25
	FamilySLC503        ProcessorFamily = 0x49
	FamilySLC504        ProcessorFamily = 0x5b
	FamilyML1000        ProcessorFamily = 0x58
	FamilySLC505        ProcessorFamily = 0x78
	FamilyML1200        ProcessorFamily = 0x88
	FamilyML1500LSP     ProcessorFamily = 0x89
	FamilyML1500LRP     ProcessorFamily = 0x8c
	FamilyCompactLogix  ProcessorFamily = 0x95
	FamilyML1100        ProcessorFamily = 0x9c
)

// directoryLayout describes the family-specific geometry of the file-zero
// program/data directory: one of three distinct size-probe addresses and
// one of three descriptor-table offsets (79, 93, 103) with an 8- or
// 10-byte stride. The legacy SLC 5/02 & ML1000 family gets the narrower
// 8-byte descriptor at the lowest offset, consistent with the
// oldest/simplest layout; every other family gets the wider 10-byte
// descriptor.
type directoryLayout struct {
	sizeFileType FileType
	sizeElement  int
	descOffset   int
	descStride   int
}

func layoutFor(family ProcessorFamily) directoryLayout {
	switch family {
	case FamilySLC502, FamilyML1000, FamilyFixedSLC500, FamilySLC501:
		return directoryLayout{sizeFileType: 0, sizeElement: 0x23, descOffset: 79, descStride: 8}
	case FamilyML1100, FamilyML1200, FamilyML1500LSP, FamilyML1500LRP:
		return directoryLayout{sizeFileType: 2, sizeElement: 0x2f, descOffset: 93, descStride: 10}
	default: // SLC 5/03, 5/04, 5/05, CompactLogix and anything unrecognized
		return directoryLayout{sizeFileType: 1, sizeElement: 0x23, descOffset: 103, descStride: 10}
	}
}

// fileTypeTags maps a raw directory byte-0 type code to its ASCII tag,
// covering the two alternate codes seen for O and I.
var fileTypeTags = map[byte]string{
	0x82: "O", 0x8b: "O",
	0x83: "I", 0x8c: "I",
	0x84: "S",
	0x85: "B",
	0x86: "T",
	0x87: "C",
	0x88: "R",
	0x89: "N",
	0x8a: "F",
	0x8d: "ST",
	0x8e: "A",
	0x91: "L",
	0x92: "MG",
	0x93: "PD",
	0x94: "PLS",
}

// bytesPerElemForTag mirrors fileTypeRegistry for the tags directory
// scanning can produce, including the alternate codes.
var bytesPerElemForTag = map[string]int{
	"O": 2, "I": 2, "S": 2, "B": 2, "T": 6, "C": 6, "R": 6,
	"N": 2, "F": 4, "ST": 84, "A": 2, "L": 4, "MG": 50, "PD": 46, "PLS": 12,
}

// DataFileDescriptor is one entry of a directory scan: a data-table file
// discovered in file zero.
type DataFileDescriptor struct {
	FileTypeTag  string
	FileNumber   int
	ElementCount int
}

// userDataRangeLow/High bound the file-type codes directory scanning
// returns as DataFileDescriptor entries.
const (
	userDataRangeLow  byte = 0x82
	userDataRangeHigh byte = 0x9e
)

// parseDirectory walks the fixed-stride descriptor table inside a file-zero
// blob and returns the user-data file descriptors, assigning file numbers
// by monotonic increment once the scan enters the data-file region.
func parseDirectory(fileZero []byte, layout directoryLayout) []DataFileDescriptor {
	var out []DataFileDescriptor

	fileNumber := 0
	for off := layout.descOffset; off+3 <= len(fileZero); off += layout.descStride {
		typeCode := fileZero[off]
		length := int(bytesx16(fileZero[off+1 : off+3]))

		if typeCode < userDataRangeLow || typeCode > userDataRangeHigh {
			continue
		}

		tag, ok := fileTypeTags[typeCode]
		if !ok {
			fileNumber++
			continue
		}

		bpe := bytesPerElemForTag[tag]
		if bpe == 0 {
			bpe = 1
		}

		out = append(out, DataFileDescriptor{
			FileTypeTag:  tag,
			FileNumber:   fileNumber,
			ElementCount: length / bpe,
		})
		fileNumber++
	}

	return out
}

func bytesx16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

// programFileGroup is one of the seven ordered file-number groups the
// upload driver classifies program-file directory entries into.
type programFileGroup int

const (
	groupSystem programFileGroup = iota
	groupLadder
	groupSystemLadder
	groupData
	groupForce
	groupUnknown1
	groupUnknown2
)

// classifyProgramFile maps a raw type-code byte from the program-file
// section of file zero to its ordered group.
func classifyProgramFile(typeCode byte) (programFileGroup, bool) {
	switch {
	case typeCode >= 0x40 && typeCode <= 0x5f:
		return groupSystem, true
	case typeCode >= 0x20 && typeCode <= 0x3f:
		return groupLadder, true
	case typeCode >= 0x60 && typeCode <= 0x7f:
		return groupSystemLadder, true
	case typeCode >= 0x80 && typeCode <= 0x9f:
		return groupData, true
	case typeCode >= 0xa0 && typeCode <= 0xbf:
		return groupForce, true
	case typeCode >= 0xc0 && typeCode <= 0xdf:
		return groupUnknown1, true
	case typeCode >= 0xe0:
		return groupUnknown2, true
	default:
		return 0, false
	}
}

// programFileEntry is one entry of the program-file section of the
// directory: a type code plus byte length, not yet assigned a file
// number (that happens per-group during the upload scan).
type programFileEntry struct {
	typeCode byte
	length   int
}

// parseProgramFileSection extracts program-file entries from the same
// fixed-stride table used by parseDirectory, for the upload driver's use;
// unlike parseDirectory it does not filter by the user-data range.
func parseProgramFileSection(fileZero []byte, layout directoryLayout) []programFileEntry {
	var out []programFileEntry
	for off := layout.descOffset; off+3 <= len(fileZero); off += layout.descStride {
		out = append(out, programFileEntry{
			typeCode: fileZero[off],
			length:   int(bytesx16(fileZero[off+1 : off+3])),
		})
	}
	return out
}

// assignProgramFileNumbers assigns each entry its file number: incrementing
// from 0 independently within each of the seven ordered groups, in group
// order.
func assignProgramFileNumbers(entries []programFileEntry) []ProgramFile {
	counters := map[programFileGroup]int{}
	groups := make(map[programFileGroup][]programFileEntry)
	order := []programFileGroup{groupSystem, groupLadder, groupSystemLadder, groupData, groupForce, groupUnknown1, groupUnknown2}

	for _, e := range entries {
		g, ok := classifyProgramFile(e.typeCode)
		if !ok {
			continue
		}
		groups[g] = append(groups[g], e)
	}

	var out []ProgramFile
	for _, g := range order {
		for _, e := range groups[g] {
			out = append(out, ProgramFile{
				FileTypeCode: e.typeCode,
				FileNumber:   counters[g],
				ByteLength:   e.length,
			})
			counters[g]++
		}
	}

	return out
}

// ProgramFile is a program-file section entry with its assigned file
// number, ready for the upload driver to read in full.
type ProgramFile struct {
	FileTypeCode byte
	FileNumber   int
	ByteLength   int
}

// ProgramFileBlob is the result of uploading one program file.
type ProgramFileBlob struct {
	FileTypeCode byte
	FileNumber   int
	Data         []byte
}
