package api

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// BuildInfo is the build metadata stamped via ldflags.
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

func (b BuildInfo) withDefaults() BuildInfo {
	if b.Version == "" {
		b.Version = "dev"
	}
	if b.GitCommit == "" {
		b.GitCommit = "unknown"
	}
	if b.BuildDate == "" {
		b.BuildDate = "unknown"
	}
	return b
}

type versionResponse struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Driver    string `json:"db_driver"`
}

// VersionHandler serves build metadata and the active storage driver.
func VersionHandler(build BuildInfo, driver string) http.Handler {
	build = build.withDefaults()
	response := versionResponse{
		Version:   build.Version,
		GitCommit: build.GitCommit,
		BuildDate: build.BuildDate,
		GoVersion: runtime.Version(),
		Driver:    driver,
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	})
}
