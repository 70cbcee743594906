package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path"
	"strings"

	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
	apperrors "github.com/inventohub/patent-etl/pkg/errors"
)

// Member is one file yielded while walking an archive.  Name is the base
// filename; Data is the full content.
type Member struct {
	Name string
	Data []byte
}

// MemberFunc receives each publication XML found in an archive.  Returning
// an error stops the walk.
type MemberFunc func(m Member) error

// Unpacker walks office bulk archives.  The weekly front-file archive is a
// zip or tar of inner zips (one per document batch); the publication XMLs
// live inside the inner zips.
type Unpacker struct {
	log logging.Logger
}

func NewUnpacker(log logging.Logger) *Unpacker {
	return &Unpacker{log: log.Named("unpacker")}
}

// WalkArchiveFile dispatches on the archive's extension and streams every
// publication XML to fn.  Any extension other than .zip and .tar is a hard
// failure for the whole archive, not a skip.
func (u *Unpacker) WalkArchiveFile(archivePath string, fn MemberFunc) error {
	switch {
	case strings.HasSuffix(archivePath, ".zip"):
		return u.walkZipFile(archivePath, fn)
	case strings.HasSuffix(archivePath, ".tar"):
		return u.walkTarFile(archivePath, fn)
	default:
		return apperrors.New(apperrors.ErrCodeUnsupportedArchive, "unsupported archive format "+path.Base(archivePath))
	}
}

func (u *Unpacker) walkZipFile(archivePath string, fn MemberFunc) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeBadArchive, "open zip "+path.Base(archivePath))
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		data, err := readZipMember(f)
		if err != nil {
			return err
		}
		if err := u.visitTopMember(f.Name, data, fn); err != nil {
			return err
		}
	}
	return nil
}

func (u *Unpacker) walkTarFile(archivePath string, fn MemberFunc) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeBadArchive, "open tar "+path.Base(archivePath))
	}
	defer f.Close()

	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeBadArchive, "read tar "+path.Base(archivePath))
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeBadArchive, "read tar member "+hdr.Name)
		}
		if err := u.visitTopMember(hdr.Name, data, fn); err != nil {
			return err
		}
	}
}

// visitTopMember handles one top-level archive member: inner zips are walked
// for publication XMLs, bare XMLs are yielded directly, everything else is
// skipped.
func (u *Unpacker) visitTopMember(name string, data []byte, fn MemberFunc) error {
	if isZip(data) {
		return u.walkInnerZip(name, data, fn)
	}
	if IsPatentXML(name) {
		return fn(Member{Name: path.Base(name), Data: data})
	}
	return nil
}

// walkInnerZip yields every publication XML inside one inner zip.  A
// corrupt inner zip is logged and skipped; the archive keeps going.
func (u *Unpacker) walkInnerZip(name string, data []byte, fn MemberFunc) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		u.log.Warn("skipping unreadable inner zip",
			logging.String("member", name),
			logging.Err(err))
		return nil
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !IsPatentXML(f.Name) {
			continue
		}
		content, err := readZipMember(f)
		if err != nil {
			return err
		}
		if err := fn(Member{Name: path.Base(f.Name), Data: content}); err != nil {
			return err
		}
	}
	return nil
}

// ListZipMembers returns the XML members of a flat grant zip (the USPTO
// layout: member XMLs directly at the top level).
func (u *Unpacker) ListZipMembers(archivePath string) ([]Member, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeBadArchive, "open zip "+path.Base(archivePath))
	}
	defer r.Close()

	var members []Member
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		data, err := readZipMember(f)
		if err != nil {
			return nil, err
		}
		members = append(members, Member{Name: path.Base(f.Name), Data: data})
	}
	return members, nil
}

func readZipMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeBadArchive, "open member "+f.Name)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeBadArchive, "read member "+f.Name)
	}
	return data, nil
}

// isZip sniffs the local-file-header magic.
func isZip(data []byte) bool {
	return len(data) >= 4 && data[0] == 'P' && data[1] == 'K' && data[2] == 3 && data[3] == 4
}
