package capture

// FailureKind records why a capture ended unsuccessfully. Callers only act
// on Outcome.Success; the kind feeds logs and capture history.
type FailureKind int

const (
	FailureNone FailureKind = iota
	// FailurePlatform: the platform reported it could not capture
	FailurePlatform
	// FailureDecode: the pixel buffer did not yield an image
	FailureDecode
	// FailureEncode: directory creation, encoding, or file I/O failed
	FailureEncode
	// FailureThrottled: refused before reaching the platform
	FailureThrottled
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return ""
	case FailurePlatform:
		return "platform"
	case FailureDecode:
		return "decode"
	case FailureEncode:
		return "encode"
	case FailureThrottled:
		return "throttled"
	default:
		return "unknown"
	}
}

// Outcome is the final result of one capture
type Outcome struct {
	Success bool
	Failure FailureKind
}

func succeeded() Outcome {
	return Outcome{Success: true}
}

func failed(kind FailureKind) Outcome {
	return Outcome{Failure: kind}
}
