package initializer

import (
	"os"

	"github.com/CloudNativeWorks/etlctl/internal/envfile"
)

// PlaceEnvTemplate writes an env file holding only defaults to path if it
// does not exist. It reports whether a file was written.
func (i *Initializer) PlaceEnvTemplate(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		i.Logger.Infof("%s already exists, skipping", path)
		return false, nil
	} else if !os.IsNotExist(err) {
		i.Logger.Errorf("failed to check %s: %v", path, err)
		return false, err
	}

	if err := envfile.Write(path, envfile.Values{}); err != nil {
		i.Logger.Errorf("failed to write %s: %v", path, err)
		return false, err
	}
	return true, nil
}
