// Package snapshot exports catalog collections to a compact file and
// restores them through the importer.
//
// A snapshot is a fixed binary header followed by an LZ4 frame holding a
// MessagePack stream: one Meta value, then one Collection per name listed
// in Meta.
package snapshot

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/starford/edupath/internal/docstore"
	"github.com/starford/edupath/internal/importer"
	"github.com/starford/edupath/internal/models"
)

const (
	// MagicBytes identifies a snapshot file.
	MagicBytes    = "EDUP"
	FormatVersion = 1
	// FileExtension is the conventional snapshot suffix.
	FileExtension = ".edup"
)

// ErrInvalidFormat is returned for files that are not snapshots.
var ErrInvalidFormat = errors.New("not a snapshot file")

// Header is the uncompressed file prefix.
type Header struct {
	Magic    [4]byte
	Version  uint8
	Flags    uint8
	Reserved [2]byte
}

// Meta describes the snapshot contents.
type Meta struct {
	CreatedAt   time.Time `msgpack:"created_at"`
	Collections []string  `msgpack:"collections"`
}

// Collection is one exported collection.
type Collection struct {
	Name      string           `msgpack:"name"`
	Documents []map[string]any `msgpack:"documents"`
}

func writeHeader(w io.Writer) error {
	h := Header{Version: FormatVersion}
	copy(h.Magic[:], MagicBytes)
	return binary.Write(w, binary.LittleEndian, h)
}

func readHeader(r io.Reader) error {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	if string(h.Magic[:]) != MagicBytes {
		return fmt.Errorf("%w: magic %q", ErrInvalidFormat, h.Magic[:])
	}
	if h.Version != FormatVersion {
		return fmt.Errorf("unsupported snapshot version: %d", h.Version)
	}
	return nil
}

// Export writes the named collections, or every collection when names is
// empty, to w.
func Export(ctx context.Context, gw *docstore.Gateway, w io.Writer, names []string) (Meta, error) {
	if len(names) == 0 {
		all, err := gw.ListCollections(ctx)
		if err != nil {
			return Meta{}, err
		}
		names = all
	}
	meta := Meta{CreatedAt: time.Now().UTC(), Collections: names}

	if err := writeHeader(w); err != nil {
		return meta, fmt.Errorf("write header: %w", err)
	}
	zw := lz4.NewWriter(w)
	enc := msgpack.NewEncoder(zw)
	if err := enc.Encode(meta); err != nil {
		return meta, fmt.Errorf("encode meta: %w", err)
	}
	for _, name := range names {
		docs, err := gw.GetAll(ctx, name)
		if err != nil {
			return meta, err
		}
		c := Collection{Name: name, Documents: make([]map[string]any, len(docs))}
		for i, d := range docs {
			c.Documents[i] = plain(map[string]any(d)).(map[string]any)
		}
		if err := enc.Encode(c); err != nil {
			return meta, fmt.Errorf("encode %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return meta, fmt.Errorf("compress: %w", err)
	}
	return meta, nil
}

// plain replaces json.Number values, which MessagePack would store as
// strings, with int64 or float64.
func plain(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plain(e)
		}
		return out
	case models.Document:
		return plain(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}

// Read decodes a whole snapshot.
func Read(r io.Reader) (Meta, []Collection, error) {
	if err := readHeader(r); err != nil {
		return Meta{}, nil, err
	}
	dec := msgpack.NewDecoder(lz4.NewReader(r))
	dec.UseLooseInterfaceDecoding(true)

	var meta Meta
	if err := dec.Decode(&meta); err != nil {
		return meta, nil, fmt.Errorf("decode meta: %w", err)
	}
	out := make([]Collection, 0, len(meta.Collections))
	for range meta.Collections {
		var c Collection
		if err := dec.Decode(&c); err != nil {
			return meta, out, fmt.Errorf("decode collection: %w", err)
		}
		out = append(out, c)
	}
	return meta, out, nil
}

// Restore re-imports a snapshot. Stored ids are dropped so documents pass
// through the importer's skip-on-exists check like any other source;
// collections already holding the data are left unchanged.
func Restore(ctx context.Context, im *importer.Importer, r io.Reader) ([]importer.Report, error) {
	_, colls, err := Read(r)
	if err != nil {
		return nil, err
	}
	reports := make([]importer.Report, 0, len(colls))
	var errs []error
	for _, c := range colls {
		docs := make([]models.Document, len(c.Documents))
		for i, d := range c.Documents {
			docs[i] = models.Document(d).Without(models.IDField)
		}
		report, err := im.Documents(ctx, c.Name, docs, true)
		reports = append(reports, report)
		if err != nil {
			if ctx.Err() != nil {
				return reports, err
			}
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
		}
	}
	return reports, errors.Join(errs...)
}
