package pqschema

import (
	"fmt"
	"strings"

	"github.com/cvkem/parquetops/errs"
)

// ParseMessageType parses the flat message-type literal grammar described
// in the external interfaces, e.g.:
//
//	message schema {
//	  REQUIRED INT64 id;
//	  REQUIRED BINARY account (UTF8);
//	  REQUIRED INT32 amount;
//	  REQUIRED INT64 datetime (TIMESTAMP(MILLIS,true));
//	}
//
// Only REQUIRED repetition and the converted types in the physical/
// converted table are accepted. An unsupported physical or converted type
// fails with UnsupportedType; any other repetition, a malformed field line
// or a missing header/closing brace fails with Internal.
// This front end is hand-rolled (the vendored codec exposes no
// message-type string parser on the Go side), but every field it produces
// is fed straight into the same codec node constructors the rest of the
// gateway uses, so the accepted grammar is exactly the codec's own. It
// backs the CLI's --projection flag: operators write the same literal the
// file format itself uses for its schema, not a parquetops-specific syntax.
func ParseMessageType(literal string) (*Schema, error) {
	lines := strings.Split(literal, "\n")
	var fields []Field
	sawHeader := false
	sawFooter := false

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "message"):
			sawHeader = true
			continue
		case line == "}":
			sawFooter = true
			continue
		}
		line = strings.TrimSuffix(line, ";")
		field, err := parseFieldLine(line)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}

	if !sawHeader || !sawFooter {
		return nil, &errs.Internal{Detail: fmt.Sprintf("malformed message type literal: %q", literal)}
	}
	return New(fields...), nil
}

func parseFieldLine(line string) (Field, error) {
	tokens := strings.Fields(line)
	if len(tokens) < 3 {
		return Field{}, &errs.Internal{Detail: fmt.Sprintf("malformed field declaration: %q", line)}
	}
	repetition, physToken, rest := tokens[0], tokens[1], tokens[2:]
	if repetition != "REQUIRED" {
		return Field{}, &errs.Internal{Detail: fmt.Sprintf("unsupported repetition %q (only REQUIRED is supported)", repetition)}
	}

	name := rest[0]
	annotation := strings.Join(rest[1:], " ")

	var physical PhysicalType
	switch physToken {
	case "INT32":
		physical = PhysicalInt32
	case "INT64":
		physical = PhysicalInt64
	case "BINARY":
		physical = PhysicalByteArray
	default:
		return Field{}, &errs.UnsupportedType{Field: name, Converted: "?", Physical: physToken}
	}

	converted := ConvertedNone
	switch {
	case strings.Contains(annotation, "UTF8"):
		converted = ConvertedUTF8
	case strings.Contains(annotation, "TIMESTAMP(MILLIS"):
		converted = ConvertedTimestampMillis
	case strings.Contains(annotation, "UINT_64"):
		converted = ConvertedUint64
	case strings.Contains(annotation, "INT_64"):
		converted = ConvertedInt64
	case strings.Contains(annotation, "INT_32"):
		converted = ConvertedInt32
	case annotation == "":
		converted = ConvertedNone
	default:
		return Field{}, &errs.UnsupportedType{Field: name, Converted: annotation, Physical: physical.String()}
	}

	if err := validateCombination(name, physical, converted); err != nil {
		return Field{}, err
	}
	return Field{Name: name, Physical: physical, Converted: converted}, nil
}

func validateCombination(name string, physical PhysicalType, converted ConvertedType) error {
	switch converted {
	case ConvertedUTF8:
		if physical != PhysicalByteArray {
			return &errs.UnsupportedType{Field: name, Converted: converted.String(), Physical: physical.String()}
		}
	case ConvertedTimestampMillis, ConvertedInt64, ConvertedUint64:
		if physical != PhysicalInt64 {
			return &errs.UnsupportedType{Field: name, Converted: converted.String(), Physical: physical.String()}
		}
	case ConvertedInt32:
		if physical != PhysicalInt32 {
			return &errs.UnsupportedType{Field: name, Converted: converted.String(), Physical: physical.String()}
		}
	case ConvertedNone:
		if physical != PhysicalInt32 && physical != PhysicalInt64 {
			return &errs.UnsupportedType{Field: name, Converted: converted.String(), Physical: physical.String()}
		}
	}
	return nil
}
