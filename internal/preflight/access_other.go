//go:build !unix

package preflight

import "os"

func checkAccess(path string) error {
	f, err := os.CreateTemp(path, ".crchecker-access-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
