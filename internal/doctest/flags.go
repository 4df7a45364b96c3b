package doctest

import (
	"sort"
	"strings"
)

// Flag alters how an example is run or compared.
type Flag uint

const (
	DontAcceptBlankline Flag = 1 << iota
	NormalizeWhitespace
	Ellipsis
	Skip
	IgnoreExceptionDetail
	ReportUdiff
	ReportCdiff
	ReportNdiff
	DontAcceptTrueFor1
	ReportOnlyFirstFailure
	FailFast
)

var flagNames = map[string]Flag{
	"DONT_ACCEPT_BLANKLINE":     DontAcceptBlankline,
	"NORMALIZE_WHITESPACE":      NormalizeWhitespace,
	"ELLIPSIS":                  Ellipsis,
	"SKIP":                      Skip,
	"IGNORE_EXCEPTION_DETAIL":   IgnoreExceptionDetail,
	"REPORT_UDIFF":              ReportUdiff,
	"REPORT_CDIFF":              ReportCdiff,
	"REPORT_NDIFF":              ReportNdiff,
	"DONT_ACCEPT_TRUE_FOR_1":    DontAcceptTrueFor1,
	"REPORT_ONLY_FIRST_FAILURE": ReportOnlyFirstFailure,
	"FAIL_FAST":                 FailFast,
}

// LookupFlag returns the flag with the given directive name.
func LookupFlag(name string) (Flag, bool) {
	flag, ok := flagNames[strings.ToUpper(name)]

	return flag, ok
}

func (f Flag) String() string {
	var names []string

	for name, flag := range flagNames {
		if f&flag != 0 {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	return strings.Join(names, "|")
}
