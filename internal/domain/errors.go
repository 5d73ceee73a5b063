package domain

import "errors"

// Sentinel errors for the read-side lookups (HTTP handlers match against
// these with errors.Is).
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrOutOfRange    = errors.New("out of range")
)

// Stage identifies which pipeline stage produced an IngestError, echoed into
// document.failed events and .err.json sidecar files.
type Stage string

const (
	StagePrecheck   Stage = "precheck"
	StageParse      Stage = "parse"
	StageNormalize  Stage = "normalize"
	StageSegment    Stage = "segment"
	StagePersist    Stage = "persist"
	StageIngestJSON Stage = "ingest-json"
	StageMultipart  Stage = "ingest-multipart"
	StageFormPath   Stage = "ingest-formpath"
	StageResegment  Stage = "resegment"
)

// ErrorKind is the error taxonomy from spec.md §7.
type ErrorKind string

const (
	KindUnsupportedFileType ErrorKind = "UnsupportedFileType"
	KindDependencyMissing   ErrorKind = "DependencyMissing"
	KindParseError          ErrorKind = "ParseError"
	KindOversizedInput      ErrorKind = "OversizedInput"
	KindPersistenceError    ErrorKind = "PersistenceError"
	KindSinkError           ErrorKind = "SinkError"
)

// IngestError is a typed error carrying its taxonomy kind and the stage it
// originated in, so callers can errors.As against it without parsing strings.
type IngestError struct {
	Kind  ErrorKind
	Stage Stage
	Msg   string
	Err   error
}

func (e *IngestError) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Msg + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Msg
}

func (e *IngestError) Unwrap() error { return e.Err }

func NewIngestError(kind ErrorKind, stage Stage, msg string, cause error) *IngestError {
	return &IngestError{Kind: kind, Stage: stage, Msg: msg, Err: cause}
}
