package transcribe

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/rbright/hotscribe/internal/failure"
)

// Classify maps an engine error onto a transcription failure kind. Errors that are
// already classified keep their kind.
func Classify(err error) failure.Kind {
	if err == nil {
		return ""
	}

	var classified *failure.Error
	if errors.As(err, &classified) {
		return classified.Kind
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH):
		return failure.KindConnectivity
	case errors.Is(err, fs.ErrPermission),
		errors.Is(err, syscall.ENOSPC),
		errors.Is(err, syscall.ENOMEM),
		errors.Is(err, syscall.EMFILE):
		return failure.KindResource
	case errors.Is(err, fs.ErrNotExist),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF),
		errors.As(err, new(*fs.PathError)):
		return failure.KindInput
	case errors.As(err, new(*net.OpError)),
		errors.As(err, new(*net.DNSError)),
		errors.As(err, new(*url.Error)):
		return failure.KindConnectivity
	}

	return classifyMessage(err.Error())
}

var messageKinds = []struct {
	kind    failure.Kind
	needles []string
}{
	{failure.KindConnectivity, []string{"connection", "connect:", "timeout", "timed out", "network", "unavailable", "dns"}},
	{failure.KindResource, []string{"no space", "disk", "out of memory", "memory", "permission denied", "quota"}},
	{failure.KindInput, []string{"no such file", "invalid file", "unsupported format", "could not decode", "corrupt"}},
}

func classifyMessage(msg string) failure.Kind {
	lower := strings.ToLower(msg)
	for _, entry := range messageKinds {
		for _, needle := range entry.needles {
			if strings.Contains(lower, needle) {
				return entry.kind
			}
		}
	}
	return failure.KindUnknown
}
