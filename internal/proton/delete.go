package proton

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gamedock/backend/internal/lutris"
	"github.com/gamedock/backend/internal/paths"
)

// Delete removes an installed wine or Proton build. It only touches builds
// inside the known runner directories and never the current global default.
func Delete(r *paths.Resolver, path string) error {
	clean := filepath.Clean(path)
	if _, err := os.Stat(clean); err != nil {
		return fmt.Errorf("proton version does not exist: %w", err)
	}

	allowed := false
	for _, dir := range []string{r.WineDir(), r.ProtonDir()} {
		if strings.HasPrefix(clean, dir+string(filepath.Separator)) {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("refusing to delete %s: outside the managed runner directories", clean)
	}

	if def := lutris.DefaultWineVersion(r); def != "" {
		if clean == filepath.Clean(def) {
			return fmt.Errorf("cannot delete the default wine version; set a different default first")
		}
	}

	if err := os.RemoveAll(clean); err != nil {
		return fmt.Errorf("delete %s: %w", clean, err)
	}
	return nil
}
