package formats

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/Faultbox/eschalon-utils/internal/logger"
	"github.com/Faultbox/eschalon-utils/pkg/stream"
	"go.uber.org/zap"
)

// MinSaveVersion is the oldest Book II/III save format that can be read.
const MinSaveVersion = "1.03"

var saveVersionPattern = regexp.MustCompile(`^\d+\.\d+$`)

// Savename is the per-slot save metadata file: display name, timestamps,
// play time and the narrative, quest and NPC flag blocks.
type Savename struct {
	Book Book
	Path string

	Version  string // Book II/III
	Name     string
	SaveDate string
	SaveTime string
	MapName  string
	ModPath  string // Book III

	TotalSecs  int
	TotalTurns int
	TotalDays  int
	Coords     int // Book II/III

	Options   []int
	Narrative []int
	Quests    []int
	NPCs      []int

	Weather          int // Book II/III
	WeatherIntensity int // Book II/III

	TrailingBytes []byte
}

// NewSavename returns a zeroed savename for the book.
func NewSavename(book Book) *Savename {
	sn := &Savename{Book: book}
	if book != Book1 {
		sn.Version = MinSaveVersion
	}
	sn.alloc()
	return sn
}

func (sn *Savename) alloc() {
	if sn.Book == Book1 {
		sn.Options = make([]int, 4)
		sn.Narrative = make([]int, 32)
		sn.Quests = make([]int, 30)
		sn.NPCs = make([]int, 32)
		return
	}
	sn.Options = make([]int, 8)
	sn.Narrative = make([]int, 64)
	sn.Quests = make([]int, 150)
	sn.NPCs = make([]int, 100)
}

// DetectSavenameBook peeks the leading string: Book II/III files open with
// a numeric version such as "1.03".
func DetectSavenameBook(data []byte) (Book, error) {
	s := stream.NewReader(data)
	first, err := s.ReadStr()
	if err != nil {
		return 0, fmt.Errorf("detecting savename book: %w", err)
	}
	if saveVersionPattern.MatchString(first) {
		return Book2, nil
	}
	return Book1, nil
}

// CheckSaveVersion refuses Book II/III saves older than MinSaveVersion.
func CheckSaveVersion(version string) error {
	if !saveVersionPattern.MatchString(version) {
		return fmt.Errorf("%w: unrecognized version %q", ErrVersionTooOld, version)
	}
	v, err := strconv.ParseFloat(version, 64)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrVersionTooOld, version)
	}
	minV, _ := strconv.ParseFloat(MinSaveVersion, 64)
	if v < minV {
		return fmt.Errorf("%w: %s, need %s or newer", ErrVersionTooOld, version, MinSaveVersion)
	}
	return nil
}

func (sn *Savename) schema() stream.Schema {
	if sn.Book == Book1 {
		return stream.Schema{
			stream.Str("savename", &sn.Name),
			stream.Str("savedate", &sn.SaveDate),
			stream.Str("savetime", &sn.SaveTime),
			stream.Str("mapname", &sn.MapName),
			stream.I32("totalsecs", &sn.TotalSecs),
			stream.I32("totalturns", &sn.TotalTurns),
			stream.I32("totaldays", &sn.TotalDays),
			stream.Ints("options", stream.KindU8, sn.Options),
			stream.Ints("narratives", stream.KindU8, sn.Narrative),
			stream.Ints("quests", stream.KindI32, sn.Quests),
			stream.Ints("npcs", stream.KindU8, sn.NPCs),
		}
	}
	sc := stream.Schema{
		stream.Func("version",
			func(s *stream.Stream) error {
				v, err := s.ReadStr()
				if err != nil {
					return err
				}
				sn.Version = v
				return CheckSaveVersion(v)
			},
			func(s *stream.Stream) error { return s.WriteStr(sn.Version) },
		),
		stream.Str("savename", &sn.Name),
		stream.Str("savedate", &sn.SaveDate),
		stream.Str("savetime", &sn.SaveTime),
		stream.Str("mapname", &sn.MapName),
		stream.I32("totalsecs", &sn.TotalSecs),
		stream.I32("totalturns", &sn.TotalTurns),
		stream.I32("totaldays", &sn.TotalDays),
		stream.I32("coords", &sn.Coords),
		stream.Ints("options", stream.KindU8, sn.Options),
		stream.Ints("narratives", stream.KindU8, sn.Narrative),
		stream.Ints("quests", stream.KindI32, sn.Quests),
		stream.Ints("npcs", stream.KindU8, sn.NPCs),
		stream.I32("weather", &sn.Weather),
		stream.I32("weather_intensity", &sn.WeatherIntensity),
	}
	if sn.Book == Book3 {
		sc = append(sc, stream.Str("modpath", &sn.ModPath))
	}
	return sc
}

// Read decodes a savename file.
func (sn *Savename) Read(s *stream.Stream) error {
	sn.alloc()
	if err := sn.schema().Read(s); err != nil {
		return err
	}
	sn.TrailingBytes = captureTrailing(s, sn.Path, "savename")
	return nil
}

// Write encodes the savename.
func (sn *Savename) Write(s *stream.Stream) error {
	if err := sn.schema().Write(s); err != nil {
		return err
	}
	return writeTrailing(s, sn.TrailingBytes)
}

// Replicate returns a deep copy.
func (sn *Savename) Replicate() *Savename {
	c := *sn
	c.Options = append([]int(nil), sn.Options...)
	c.Narrative = append([]int(nil), sn.Narrative...)
	c.Quests = append([]int(nil), sn.Quests...)
	c.NPCs = append([]int(nil), sn.NPCs...)
	c.TrailingBytes = append([]byte(nil), sn.TrailingBytes...)
	return &c
}

// Equals reports whether both savenames produce identical bytes.
func (sn *Savename) Equals(o *Savename) bool {
	return sn.Book == o.Book && sameBytes(sn, o)
}

// LoadSavename reads a savename file. A zero book selects the book from the
// file contents.
func LoadSavename(path string, book Book) (*Savename, error) {
	s, err := stream.Open(path)
	if err != nil {
		return nil, loadError(path, err)
	}
	defer s.Close()

	detected, err := DetectSavenameBook(s.Peek(stream.MaxStringLen + 2))
	if err != nil {
		return nil, loadError(path, err)
	}
	if book == 0 {
		book = detected
	} else if (book == Book1) != (detected == Book1) {
		return nil, loadError(path, fmt.Errorf("%w: requested %s, file is %s", ErrBookMismatch, book, detected))
	}

	sn := &Savename{Book: book, Path: path}
	if err := sn.Read(s); err != nil {
		return nil, loadError(path, err)
	}
	logger.Debug("loaded savename", zap.String("path", path), zap.String("name", sn.Name))
	return sn, nil
}

// Save writes the savename to path.
func (sn *Savename) Save(path string) error {
	s := stream.Create(path)
	if err := sn.Write(s); err != nil {
		s.Close()
		return loadError(path, err)
	}
	if err := s.Close(); err != nil {
		return loadError(path, err)
	}
	sn.Path = path
	return nil
}
