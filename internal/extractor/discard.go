package extractor

// DiscardReason classifies why a document or record was dropped.  Reasons
// double as metric labels, so values stay short and stable.
type DiscardReason string

const (
	ReasonMalformedXML DiscardReason = "malformed-xml"
	ReasonMissingField DiscardReason = "missing-field"
	ReasonDecodeError  DiscardReason = "decode-error"
	ReasonPanic        DiscardReason = "extract-panic"
)

// Discard is the explicit "no record" outcome of an extraction attempt.
// It propagates up to the pipeline, which aggregates counts per reason
// instead of scattering catch-and-log at every call site.
type Discard struct {
	Reason DiscardReason
	Detail string
}

func (d Discard) String() string {
	if d.Detail == "" {
		return string(d.Reason)
	}
	return string(d.Reason) + ": " + d.Detail
}
