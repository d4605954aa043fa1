// Package archive persists room keyframes to disk so a classroom's world
// survives restarts and stays inspectable after incidents.
package archive

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"croplands/server/internal/room"
)

// Version tracks the archive layout revision.
const Version = 1

const fileExtension = ".kfz"

// Header is the uncompressed-readable first line of every archive file.
type Header struct {
	Version     int    `json:"version"`
	ClassroomID string `json:"classroomId"`
	Tick        uint64 `json:"tick"`
	Sequence    uint64 `json:"sequence"`
}

// Archiver writes compressed keyframes under one directory.
type Archiver struct {
	dir string
}

// NewArchiver binds the archiver to its output directory.
func NewArchiver(dir string) *Archiver {
	return &Archiver{dir: dir}
}

func (a *Archiver) filename(classroomID string, sequence uint64) string {
	return filepath.Join(a.dir, fmt.Sprintf("%s-%016d%s", classroomID, sequence, fileExtension))
}

// WriteKeyframe persists one keyframe and returns the file path. Writing
// the same sequence twice overwrites in place.
func (a *Archiver) WriteKeyframe(classroomID string, frame room.Keyframe) (string, error) {
	path := a.filename(classroomID, frame.Sequence)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return "", err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 64*1024)
	defer bw.Flush()

	header := Header{
		Version:     Version,
		ClassroomID: classroomID,
		Tick:        frame.Tick,
		Sequence:    frame.Sequence,
	}
	hb, _ := json.Marshal(header)
	if _, err := bw.Write(hb); err != nil {
		return "", err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return "", err
	}

	if err := json.NewEncoder(bw).Encode(&frame); err != nil {
		return "", fmt.Errorf("encode keyframe: %w", err)
	}
	return path, nil
}

// ReadKeyframe loads one archived keyframe.
func ReadKeyframe(path string) (Header, room.Keyframe, error) {
	var (
		header Header
		frame  room.Keyframe
	)
	f, err := os.Open(path)
	if err != nil {
		return header, frame, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return header, frame, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	headerLine, err := br.ReadBytes('\n')
	if err != nil {
		return header, frame, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(headerLine, &header); err != nil {
		return header, frame, fmt.Errorf("decode header: %w", err)
	}
	if header.Version != Version {
		return header, frame, fmt.Errorf("unsupported archive version %d", header.Version)
	}
	if err := json.NewDecoder(br).Decode(&frame); err != nil {
		return header, frame, fmt.Errorf("decode keyframe: %w", err)
	}
	return header, frame, nil
}

// Latest returns the newest archived keyframe path for a classroom, or
// false when none exist.
func (a *Archiver) Latest(classroomID string) (string, bool, error) {
	paths, err := a.list(classroomID)
	if err != nil || len(paths) == 0 {
		return "", false, err
	}
	return paths[len(paths)-1], true, nil
}

// Prune deletes the oldest archives beyond keep for one classroom.
func (a *Archiver) Prune(classroomID string, keep int) error {
	if keep < 0 {
		keep = 0
	}
	paths, err := a.list(classroomID)
	if err != nil {
		return err
	}
	if len(paths) <= keep {
		return nil
	}
	for _, path := range paths[:len(paths)-keep] {
		if err := os.Remove(path); err != nil {
			return err
		}
	}
	return nil
}

// list returns the classroom's archive paths sorted oldest first. The
// zero-padded sequence in the name makes lexical order chronological.
func (a *Archiver) list(classroomID string) ([]string, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	prefix := classroomID + "-"
	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, fileExtension) {
			continue
		}
		paths = append(paths, filepath.Join(a.dir, name))
	}
	sort.Strings(paths)
	return paths, nil
}
