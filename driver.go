package df1

import (
	"github.com/ab-df1/df1/internal/bytesx"
)

// PCCC function codes used by the directory/upload/download driver.
const (
	fnSoleAccessAcquire  uint8 = 0x11
	fnSoleAccessRelease  uint8 = 0x12
	fnExecuteCommandList uint8 = 0x88
	fnCompleteDownload   uint8 = 0x52
)

// directoryFileType is the PCCC file-type byte under which file zero
// itself (the program/data directory) is addressed, independent of the
// user data-file type codes in the per-letter registry.
const directoryFileType FileType = 0x82

// readFileBytes reads totalBytes bytes starting at element 0 of
// (fileNumber, fileType), chunking to the processor's read cap.
func (c *Client) readFileBytes(fileNumber int, fileType byte, totalBytes int) ([]byte, error) {
	family, err := c.processorFamily()
	if err != nil {
		return nil, err
	}

	addr := Address{FileType: FileType(fileType), FileNumber: fileNumber, BitNumber: NoBit, BytesPerElem: 1}
	chunkCap := readChunkCap(addr, uint8(family))
	plans := planReadChunks(addr, totalBytes, chunkCap)

	out := make([]byte, 0, totalBytes)
	for _, plan := range plans {
		if plan.byteLen == 0 {
			continue
		}
		data, function := buildReadRequestData(plan.addr, plan.byteLen)
		p, err := c.execute(fnTypedCommand, function, data)
		if err != nil {
			return nil, err
		}
		out = append(out, p.data...)
	}

	return out, nil
}

// writeFileBytes writes payload starting at element 0 of (fileNumber,
// fileType), chunking to the write cap.
func (c *Client) writeFileBytes(fileNumber int, fileType byte, payload []byte) error {
	addr := Address{FileType: FileType(fileType), FileNumber: fileNumber, BitNumber: NoBit, BytesPerElem: 1}
	return c.writeChunked(addr, payload)
}

// readDirectoryHeader reads the 2-byte file-zero size word from the
// family-specific probe address.
func (c *Client) readDirectoryHeader(layout directoryLayout) (uint16, error) {
	addr := Address{FileType: layout.sizeFileType, FileNumber: 0, Element: layout.sizeElement, BitNumber: NoBit}
	data, function := buildReadRequestData(addr, 2)

	p, err := c.execute(fnTypedCommand, function, data)
	if err != nil {
		return 0, err
	}
	if len(p.data) < 2 {
		return 0, ErrNoDataReturned
	}

	return bytesx.ToLE16(p.data[0:2]), nil
}

// readFileZero reads the processor's family-specific geometry and the
// whole of file zero, returning both for the directory/upload scan.
func (c *Client) readFileZero() (directoryLayout, []byte, error) {
	family, err := c.processorFamily()
	if err != nil {
		return directoryLayout{}, nil, err
	}

	layout := layoutFor(family)

	size, err := c.readDirectoryHeader(layout)
	if err != nil {
		return directoryLayout{}, nil, err
	}

	fileZero, err := c.readFileBytes(0, byte(directoryFileType), int(size))
	if err != nil {
		return directoryLayout{}, nil, err
	}

	return layout, fileZero, nil
}

// ReadDirectory reads file zero and returns the user-data file
// descriptors it describes.
func (c *Client) ReadDirectory() ([]DataFileDescriptor, error) {
	layout, fileZero, err := c.readFileZero()
	if err != nil {
		return nil, err
	}

	return parseDirectory(fileZero, layout), nil
}

// Upload reads file zero's program-file section, classifies and numbers
// each entry, then reads every program file in full, raising an
// UploadProgress event after each. The raw file zero
// bytes are returned alongside the files so Download can replay the same
// directory.
func (c *Client) Upload() ([]byte, []ProgramFileBlob, error) {
	layout, fileZero, err := c.readFileZero()
	if err != nil {
		return nil, nil, err
	}

	entries := parseProgramFileSection(fileZero, layout)
	files := assignProgramFileNumbers(entries)

	blobs := make([]ProgramFileBlob, 0, len(files))
	for i, f := range files {
		data, err := c.readFileBytes(f.FileNumber, f.FileTypeCode, f.ByteLength)
		if err != nil {
			return nil, nil, err
		}

		blobs = append(blobs, ProgramFileBlob{
			FileTypeCode: f.FileTypeCode,
			FileNumber:   f.FileNumber,
			Data:         data,
		})

		c.events.UploadProgress(i+1, len(files))
	}

	return fileZero, blobs, nil
}

// downloadBeginSubCommandLen is the byte count of the pre-download file 0
// type 0x24 slice copied into the "begin download" sub-command, 4 bytes
// for the narrower legacy families and 6 for the rest.
func downloadBeginSubCommandLen(family ProcessorFamily) int {
	switch family {
	case FamilySLC502, FamilyML1000, FamilyFixedSLC500, FamilySLC501:
		return 4
	default:
		return 6
	}
}

// beginDownload builds and issues the two-sub-command "execute command
// list": a write to file 0 type 0x63 copying bytes
// 2..5/2..7 of the pre-download file 0 type 0x24, followed by a 1-byte
// "begin download" sub-command (0x56).
func (c *Client) beginDownload(family ProcessorFamily) error {
	n := downloadBeginSubCommandLen(family)

	preDownload, err := c.readFileBytes(0, 0x24, 2+n)
	if err != nil {
		return err
	}
	if len(preDownload) < 2+n {
		return ErrNoDataReturned
	}
	copied := preDownload[2 : 2+n]

	sub1Data := append([]byte{byte(0), byte(0x63)}, copied...)
	sub2Data := []byte{0x56}

	data := []byte{0x02} // sub-command count
	data = append(data, byte(len(sub1Data)))
	data = append(data, sub1Data...)
	data = append(data, byte(len(sub2Data)))
	data = append(data, sub2Data...)

	_, err = c.execute(fnTypedCommand, fnExecuteCommandList, data)
	return err
}

// Download writes a previously uploaded file collection back to the
// controller: set program mode, begin download, acquire sole access,
// write the new directory and every file, complete download, release
// sole access. Any failure aborts the sequence with no rollback, leaving
// the controller in program mode.
func (c *Client) Download(fileZero []byte, files []ProgramFileBlob) error {
	family, err := c.processorFamily()
	if err != nil {
		return err
	}

	if err := c.SetMode(family, ModeProgram); err != nil {
		return err
	}

	if err := c.beginDownload(family); err != nil {
		return err
	}

	if _, err := c.execute(fnTypedCommand, fnSoleAccessAcquire, nil); err != nil {
		return err
	}

	layout := layoutFor(family)
	sizeWord := bytesx.LE16(uint16(len(fileZero)))
	addr := Address{FileType: layout.sizeFileType, FileNumber: 0, Element: layout.sizeElement, BitNumber: NoBit}
	data := append([]byte{byte(addr.FileNumber), byte(addr.FileType)}, encodeElementField(addr.Element)...)
	data = append(data, sizeWord...)
	if _, err := c.execute(fnTypedCommand, fnTypedWriteWord, data); err != nil {
		return err
	}

	if err := c.writeFileBytes(0, byte(directoryFileType), fileZero); err != nil {
		return err
	}

	for i, f := range files {
		if err := c.writeFileBytes(f.FileNumber, f.FileTypeCode, f.Data); err != nil {
			return err
		}
		c.events.DownloadProgress(i+1, len(files))
	}

	if _, err := c.execute(fnTypedCommand, fnCompleteDownload, nil); err != nil {
		return err
	}

	_, err = c.execute(fnTypedCommand, fnSoleAccessRelease, nil)
	return err
}
