package export

import "fmt"

// UnsupportedFormatError is returned when a format keyword is unknown, or
// when this platform cannot export at all
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported export format: %s", e.Format)
}

// SubcommandNotSupportedError is returned by Start on platforms that cannot
// export. Invocation is the command the user ran, e.g. "pkg export".
type SubcommandNotSupportedError struct {
	Invocation string
}

func (e *SubcommandNotSupportedError) Error() string {
	return fmt.Sprintf("subcommand `%s' not supported on this operating system", e.Invocation)
}
