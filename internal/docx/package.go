package docx

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/m2ix4i/korrekturtool/internal/core"
)

const documentPartName = "word/document.xml"

// readDocumentXML opens the package and returns the raw bytes of
// word/document.xml. Structural problems (not a ZIP, missing part) surface
// as *core.ParseError.
func readDocumentXML(path string) ([]byte, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, &core.ParseError{Path: path, Reason: "not a valid DOCX package (encrypted or wrong format?)", Err: err}
	}
	defer r.Close()

	data, ok, err := readPart(&r.Reader, documentPartName)
	if err != nil {
		return nil, &core.ParseError{Path: path, Reason: "cannot read " + documentPartName, Err: err}
	}
	if !ok {
		return nil, &core.ParseError{Path: path, Reason: documentPartName + " not found in archive"}
	}
	return data, nil
}

// readPart returns the contents of a named entry, reporting whether it exists.
func readPart(zr *zip.Reader, name string) ([]byte, bool, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, true, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, true, fmt.Errorf("read %s: %w", name, err)
		}
		return data, true, nil
	}
	return nil, false, nil
}

// writePackage re-zips the package at srcPath into outPath, substituting the
// given parts. Parts present only in replaced (a fresh comments.xml) are
// appended in sorted order so output is reproducible across runs.
func writePackage(srcPath, outPath string, replaced map[string][]byte) error {
	src, err := zip.OpenReader(srcPath)
	if err != nil {
		return fmt.Errorf("reopen source package: %w", err)
	}
	defer src.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	zw := zip.NewWriter(out)
	written := make(map[string]bool, len(replaced))

	for _, f := range src.File {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: f.Method})
		if err != nil {
			return closeAndFail(zw, out, fmt.Errorf("create entry %s: %w", f.Name, err))
		}
		if data, ok := replaced[f.Name]; ok {
			written[f.Name] = true
			if _, err := w.Write(data); err != nil {
				return closeAndFail(zw, out, fmt.Errorf("write entry %s: %w", f.Name, err))
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return closeAndFail(zw, out, fmt.Errorf("open entry %s: %w", f.Name, err))
		}
		_, err = io.Copy(w, rc)
		rc.Close()
		if err != nil {
			return closeAndFail(zw, out, fmt.Errorf("copy entry %s: %w", f.Name, err))
		}
	}

	var added []string
	for name := range replaced {
		if !written[name] {
			added = append(added, name)
		}
	}
	sort.Strings(added)
	for _, name := range added {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return closeAndFail(zw, out, fmt.Errorf("create entry %s: %w", name, err))
		}
		if _, err := w.Write(replaced[name]); err != nil {
			return closeAndFail(zw, out, fmt.Errorf("write entry %s: %w", name, err))
		}
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("finalize archive: %w", err)
	}
	return out.Close()
}

func closeAndFail(zw *zip.Writer, out *os.File, err error) error {
	_ = zw.Close()
	_ = out.Close()
	return err
}

// copyFile duplicates the package byte for byte. Used when there is nothing
// to integrate, so a no-op run cannot corrupt the document.
func copyFile(srcPath, outPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("copy package: %w", err)
	}
	return out.Close()
}
