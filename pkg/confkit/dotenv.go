package confkit

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

const maxDotenvDepth = 6

var (
	dotenvOnce   sync.Once
	dotenvLoaded []string
)

// LoadDotenvOnce loads .env files once per process and returns the files
// that were read. ENV_FILE names a single file; otherwise every .env from
// the working directory up to the module root is read, nearest first, so
// closer files win. Existing variables are kept unless DOTENV_OVERLOAD=1.
// NO_DOTENV=1 disables loading.
func LoadDotenvOnce() []string {
	dotenvOnce.Do(func() {
		wd, err := os.Getwd()
		if err != nil {
			return
		}
		dotenvLoaded = loadDotenv(wd)
	})
	return dotenvLoaded
}

func loadDotenv(start string) []string {
	if os.Getenv("NO_DOTENV") == "1" {
		return nil
	}
	load := godotenv.Load
	if os.Getenv("DOTENV_OVERLOAD") == "1" {
		load = godotenv.Overload
	}

	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if load(envFile) == nil {
			return []string{envFile}
		}
		return nil
	}

	var loaded []string
	dir := start
	for i := 0; i < maxDotenvDepth; i++ {
		candidate := filepath.Join(dir, ".env")
		if fileExists(candidate) && load(candidate) == nil {
			loaded = append(loaded, candidate)
		}
		if fileExists(filepath.Join(dir, "go.mod")) || fileExists(filepath.Join(dir, ".git")) {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return loaded
}

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}
