package config

import "os"

// CheckedPath implements the §6 filesystem contract for resolving a
// sibling configuration file by name. It searches, in order:
//
//	{base}{name}.{ext}
//	{base}{name}/{ext}   (reverse == false)
//	{base}{ext}/{name}   (reverse == true)
//
// and returns the first path that exists, or ok == false if none do.
func CheckedPath(base, name, ext string, reverse bool) (path string, ok bool) {
	candidates := []string{base + name + "." + ext}
	if reverse {
		candidates = append(candidates, base+ext+"/"+name)
	} else {
		candidates = append(candidates, base+name+"/"+ext)
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, true
		}
	}
	return "", false
}
