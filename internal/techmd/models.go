package techmd

// Attributes are the technical properties reported for one file
type Attributes struct {
	Format         string `json:"format,omitempty" yaml:"format,omitempty"`
	FormatVersion  string `json:"format_version,omitempty" yaml:"format_version,omitempty"`
	MimeType       string `json:"mimetype,omitempty" yaml:"mimetype,omitempty"`
	Checksum       string `json:"checksum,omitempty" yaml:"checksum,omitempty"`
	ChecksumMethod string `json:"checksum_method,omitempty" yaml:"checksum_method,omitempty"`
	SizeBytes      int64  `json:"size,omitempty" yaml:"size,omitempty"`
	Width          int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height         int    `json:"height,omitempty" yaml:"height,omitempty"`
}

// Entry is one raw report entry, before the filename has been interpreted
type Entry struct {
	Filename   string
	Attributes Attributes
}

// FileRecord is a report entry whose filename follows the naming convention
type FileRecord struct {
	Identifier string     `json:"identifier" yaml:"identifier"`
	Sequence   int        `json:"sequence" yaml:"sequence"`
	Filename   string     `json:"filename" yaml:"filename"`
	Extension  string     `json:"extension" yaml:"extension"`
	Attributes Attributes `json:"attributes" yaml:"attributes"`
}

// parquetRow is the column layout accepted for parquet reports
type parquetRow struct {
	Filename       string `parquet:"filename"`
	Format         string `parquet:"format,optional"`
	FormatVersion  string `parquet:"format_version,optional"`
	MimeType       string `parquet:"mimetype,optional"`
	Checksum       string `parquet:"checksum,optional"`
	ChecksumMethod string `parquet:"checksum_method,optional"`
	SizeBytes      int64  `parquet:"size,optional"`
	Width          int64  `parquet:"width,optional"`
	Height         int64  `parquet:"height,optional"`
}

func (r parquetRow) entry() Entry {
	return Entry{
		Filename: r.Filename,
		Attributes: Attributes{
			Format:         r.Format,
			FormatVersion:  r.FormatVersion,
			MimeType:       r.MimeType,
			Checksum:       r.Checksum,
			ChecksumMethod: r.ChecksumMethod,
			SizeBytes:      r.SizeBytes,
			Width:          int(r.Width),
			Height:         int(r.Height),
		},
	}
}
