package packagekit

import (
	"fmt"
	"path"
	"strings"
)

const (
	targetDirKey       = "TARGETDIR"
	programFilesKey    = "ProgramFilesFolder"
	installDirKey      = "INSTALLDIR"
	resourceDirKeyTmpl = "RDIR%04d"
)

// ResourceInfo is one file to install.
type ResourceInfo struct {
	SourcePath   string
	DestPath     string // slash separated, relative to INSTALLDIR
	FileName     string
	FileKey      string // File table key, also the name inside the cabinet
	Size         int64
	ComponentKey string
}

// DirectoryInfo is one directory created under INSTALLDIR.
type DirectoryInfo struct {
	Key       string
	ParentKey string
	Name      string
	Files     []string // file keys, in resource order
}

// collectResources stats every binary. File keys are the file name,
// suffixed with the next free _N when the key was already taken by an
// earlier binary.
func collectResources(binaries []Binary) ([]ResourceInfo, error) {
	resources := make([]ResourceInfo, 0, len(binaries))
	used := make(map[string]struct{})
	suffix := make(map[string]int)

	for _, b := range binaries {
		dest, err := destPath(b)
		if err != nil {
			return nil, err
		}
		info, err := isRegularFile(b.Source)
		if err != nil {
			return nil, err
		}

		name := path.Base(dest)
		key := name
		for {
			if _, taken := used[key]; !taken {
				break
			}
			suffix[name]++
			key = fmt.Sprintf("%s_%d", name, suffix[name])
		}
		used[key] = struct{}{}

		resources = append(resources, ResourceInfo{
			SourcePath: b.Source,
			DestPath:   dest,
			FileName:   name,
			FileKey:    key,
			Size:       info.Size(),
		})
	}
	return resources, nil
}

// collectDirectories assigns a directory key to every directory a
// resource lives in, creating intermediate directories as needed, and
// sets each resource's ComponentKey to the key of its directory. The
// install root comes first; the rest follow in first seen order.
func collectDirectories(productName string, resources []ResourceInfo) []DirectoryInfo {
	dirs := []DirectoryInfo{{
		Key:       installDirKey,
		ParentKey: programFilesKey,
		Name:      productName,
	}}
	byPath := map[string]int{"": 0}

	for i := range resources {
		current := 0
		dirPath := ""

		parent := path.Dir(resources[i].DestPath)
		if parent != "." {
			for _, part := range strings.Split(parent, "/") {
				if dirPath == "" {
					dirPath = part
				} else {
					dirPath = dirPath + "/" + part
				}

				idx, ok := byPath[dirPath]
				if !ok {
					idx = len(dirs)
					dirs = append(dirs, DirectoryInfo{
						Key:       fmt.Sprintf(resourceDirKeyTmpl, len(dirs)-1),
						ParentKey: dirs[current].Key,
						Name:      part,
					})
					byPath[dirPath] = idx
				}
				current = idx
			}
		}

		dirs[current].Files = append(dirs[current].Files, resources[i].FileKey)
		resources[i].ComponentKey = dirs[current].Key
	}

	return dirs
}
