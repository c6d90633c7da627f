package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Синтаксис текстового формата
	SynInfo              Code = 2000
	SynUnexpectedEOF     Code = 2001
	SynUnexpectedChar    Code = 2002
	SynMismatchedBracket Code = 2003
	SynOversizedInt      Code = 2004
	SynBadNumber         Code = 2005
	SynOversizedSymbol   Code = 2006
	SynNestingTooDeep    Code = 2007

	// Инварианты хранилища
	StoInfo      Code = 3000
	StoRoundTrip Code = 3001
	StoInvariant Code = 3002

	IOInfo          Code = 4000
	IOLoadFileError Code = 4001
	IOWriteError    Code = 4002

	// Линты
	LntInfo          Code = 5000
	LntNonNFCSymbol  Code = 5001
	LntDuplicateTerm Code = 5002
	LntEmptyFile     Code = 5003

	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:          "Unknown error",
		SynInfo:              "Syntax information",
		SynUnexpectedEOF:     "unexpected end of input",
		SynUnexpectedChar:    "unexpected character",
		SynMismatchedBracket: "mismatched closing bracket",
		SynOversizedInt:      "integer literal out of range",
		SynBadNumber:         "malformed number",
		SynOversizedSymbol:   "symbol name too long",
		SynNestingTooDeep:    "term nesting exceeds the reader depth limit",
		StoInfo:              "Store information",
		StoRoundTrip:         "printed term does not read back as the same term",
		StoInvariant:         "store invariant violated",
		IOInfo:               "I/O information",
		IOLoadFileError:      "I/O load file error",
		IOWriteError:         "I/O write error",
		LntInfo:              "Lint information",
		LntNonNFCSymbol:      "quoted symbol name is not in Unicode NFC form",
		LntDuplicateTerm:     "term repeats an earlier term of the file",
		LntEmptyFile:         "file contains no terms",
		ObsInfo:              "Observability information",
		ObsTimings:           "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("STO%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("LNT%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
