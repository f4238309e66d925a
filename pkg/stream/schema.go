package stream

import (
	"errors"
	"fmt"
)

// Codec is a record that knows its own byte layout.
type Codec interface {
	Read(s *Stream) error
	Write(s *Stream) error
}

// Kind is the on-disk width and signedness of an integer field.
type Kind int

// Integer kinds.
const (
	KindU8 Kind = iota
	KindI8
	KindU16
	KindI16
	KindU32
	KindI32
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindU8:
		return "u8"
	case KindI8:
		return "i8"
	case KindU16:
		return "u16"
	case KindI16:
		return "i16"
	case KindU32:
		return "u32"
	case KindI32:
		return "i32"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Size returns the width of the kind in bytes.
func (k Kind) Size() int {
	switch k {
	case KindU8, KindI8:
		return 1
	case KindU16, KindI16:
		return 2
	default:
		return 4
	}
}

// ReadInt reads one integer of kind k.
func (s *Stream) ReadInt(k Kind) (int, error) {
	switch k {
	case KindU8:
		return s.ReadU8()
	case KindI8:
		return s.ReadI8()
	case KindU16:
		return s.ReadU16()
	case KindI16:
		return s.ReadI16()
	case KindU32:
		return s.ReadU32()
	default:
		return s.ReadI32()
	}
}

// WriteInt writes one integer of kind k.
func (s *Stream) WriteInt(k Kind, v int) error {
	switch k {
	case KindU8:
		return s.WriteU8(v)
	case KindI8:
		return s.WriteI8(v)
	case KindU16:
		return s.WriteU16(v)
	case KindI16:
		return s.WriteI16(v)
	case KindU32:
		return s.WriteU32(v)
	default:
		return s.WriteI32(v)
	}
}

// Field is one entry of a record schema, bound to the storage it fills.
type Field struct {
	Name  string
	read  func(*Stream) error
	write func(*Stream) error
}

// Schema is an ordered list of fields.
type Schema []Field

// Read consumes every field in order. A first-item EOF that occurs after the
// schema has consumed any byte is reported as ErrTruncated.
func (sc Schema) Read(s *Stream) error {
	start := s.Offset()
	for _, f := range sc {
		if err := f.read(s); err != nil {
			if errors.Is(err, ErrFirstItemEOF) && s.Offset() != start {
				return fmt.Errorf("%s: %w at offset %d", f.Name, ErrTruncated, s.Offset())
			}
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	return nil
}

// Write emits every field in order.
func (sc Schema) Write(s *Stream) error {
	for _, f := range sc {
		if err := f.write(s); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	return nil
}

// Int binds an integer of kind k to p.
func Int(name string, k Kind, p *int) Field {
	return Field{
		Name: name,
		read: func(s *Stream) error {
			v, err := s.ReadInt(k)
			if err != nil {
				return err
			}
			*p = v
			return nil
		},
		write: func(s *Stream) error { return s.WriteInt(k, *p) },
	}
}

// U8 binds an unsigned byte.
func U8(name string, p *int) Field { return Int(name, KindU8, p) }

// I8 binds a signed byte.
func I8(name string, p *int) Field { return Int(name, KindI8, p) }

// U16 binds an unsigned short.
func U16(name string, p *int) Field { return Int(name, KindU16, p) }

// I16 binds a signed short.
func I16(name string, p *int) Field { return Int(name, KindI16, p) }

// U32 binds an unsigned int.
func U32(name string, p *int) Field { return Int(name, KindU32, p) }

// I32 binds a signed int.
func I32(name string, p *int) Field { return Int(name, KindI32, p) }

// F64 binds a double.
func F64(name string, p *float64) Field {
	return Field{
		Name: name,
		read: func(s *Stream) error {
			v, err := s.ReadF64()
			if err != nil {
				return err
			}
			*p = v
			return nil
		},
		write: func(s *Stream) error { return s.WriteF64(*p) },
	}
}

// Str binds a CRLF-terminated string.
func Str(name string, p *string) Field {
	return Field{
		Name: name,
		read: func(s *Stream) error {
			v, err := s.ReadStr()
			if err != nil {
				return err
			}
			*p = v
			return nil
		},
		write: func(s *Stream) error { return s.WriteStr(*p) },
	}
}

// Ints binds a fixed-count array of integers of kind k.
func Ints(name string, k Kind, vals []int) Field {
	return Field{
		Name: name,
		read: func(s *Stream) error {
			for i := range vals {
				v, err := s.ReadInt(k)
				if err != nil {
					return fmt.Errorf("[%d]: %w", i, err)
				}
				vals[i] = v
			}
			return nil
		},
		write: func(s *Stream) error {
			for i, v := range vals {
				if err := s.WriteInt(k, v); err != nil {
					return fmt.Errorf("[%d]: %w", i, err)
				}
			}
			return nil
		},
	}
}

// Strs binds a fixed-count array of strings.
func Strs(name string, vals []string) Field {
	return Field{
		Name: name,
		read: func(s *Stream) error {
			for i := range vals {
				v, err := s.ReadStr()
				if err != nil {
					return fmt.Errorf("[%d]: %w", i, err)
				}
				vals[i] = v
			}
			return nil
		},
		write: func(s *Stream) error {
			for i, v := range vals {
				if err := s.WriteStr(v); err != nil {
					return fmt.Errorf("[%d]: %w", i, err)
				}
			}
			return nil
		},
	}
}

// Record binds a nested record.
func Record(name string, c Codec) Field {
	return Field{Name: name, read: c.Read, write: c.Write}
}

// Records binds a fixed-count array of nested records.
func Records[T any, PT interface {
	*T
	Codec
}](name string, recs []T) Field {
	return Field{
		Name: name,
		read: func(s *Stream) error {
			for i := range recs {
				if err := PT(&recs[i]).Read(s); err != nil {
					return fmt.Errorf("[%d]: %w", i, err)
				}
			}
			return nil
		},
		write: func(s *Stream) error {
			for i := range recs {
				if err := PT(&recs[i]).Write(s); err != nil {
					return fmt.Errorf("[%d]: %w", i, err)
				}
			}
			return nil
		},
	}
}

// Nested binds a sub-schema as a single named field.
func Nested(name string, sc Schema) Field {
	return Field{Name: name, read: sc.Read, write: sc.Write}
}

// Func binds custom read and write logic.
func Func(name string, read, write func(*Stream) error) Field {
	return Field{Name: name, read: read, write: write}
}
