package library

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Entry is one directory listing row.
type Entry struct {
	Name  string
	Path  string
	IsDir bool
}

// ListDir returns the entries of dir with dot entries skipped, directories
// first, each group sorted by name. Unreadable directories list as empty.
func ListDir(dir string) []Entry {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if strings.HasPrefix(de.Name(), ".") {
			continue
		}
		entries = append(entries, Entry{
			Name:  de.Name(),
			Path:  filepath.Join(dir, de.Name()),
			IsDir: de.IsDir(),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// IsSongFile reports whether name carries one of the given extensions
// (lowercase, with leading dot, e.g. ".mp3").
func IsSongFile(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return lo.Contains(exts, ext)
}

// SongsFromDir imports every song file under dir into the store, walking
// subdirectories recursively. Files of one directory are imported as a batch
// so their titles lose the common pre/suffix of the batch. Returns ids in
// listing order: the directory's own files first, then each subdirectory.
func SongsFromDir(dir string, exts []string, store *Store) []SongID {
	entries := ListDir(dir)
	files := lo.Filter(entries, func(e Entry, _ int) bool { return !e.IsDir && IsSongFile(e.Name, exts) })
	dirs := lo.Filter(entries, func(e Entry, _ int) bool { return e.IsDir })

	ids := songsFromFiles(files, store)
	for _, sub := range dirs {
		ids = append(ids, SongsFromDir(sub.Path, exts, store)...)
	}
	return ids
}

func songsFromFiles(files []Entry, store *Store) []SongID {
	var begin, end string
	// trimming shared name parts only makes sense for more than one song
	if len(files) > 1 {
		names := lo.Map(files, func(e Entry, _ int) string { return e.Name })
		begin, end = CommonEnds(names)
	}

	ids := make([]SongID, 0, len(files))
	for i, f := range files {
		title := strings.TrimSuffix(strings.TrimPrefix(f.Name, begin), end)
		title = NormalizeTitle(title, i+1)
		ids = append(ids, store.Import(f.Path, title))
	}
	return ids
}

// CommonEnds returns the longest prefix and suffix shared by all names.
func CommonEnds(names []string) (begin, end string) {
	if len(names) == 0 {
		return "", ""
	}
	begin, end = names[0], names[0]
	for _, name := range names[1:] {
		begin, end = commonEndsOf(name, begin, end)
	}
	return begin, end
}

func commonEndsOf(name, begin, end string) (string, string) {
	newBegin := ""
	for n := min(len(name), len(begin)); n > 0; n-- {
		if name[:n] == begin[:n] {
			newBegin = name[:n]
			break
		}
	}
	newEnd := ""
	for n := min(len(name), len(end)); n > 0; n-- {
		if name[len(name)-n:] == end[len(end)-n:] {
			newEnd = name[len(name)-n:]
			break
		}
	}
	return newBegin, newEnd
}
