package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server  ServerSettings  `json:"server"`
	Storage StorageSettings `json:"storage"`
	TVMaze  TVMazeSettings  `json:"tvmaze"`
	Log     LogConfig       `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type StorageSettings struct {
	// DataDir holds the tracking database.
	DataDir string `json:"dataDir"`
	// CacheDir holds cached remote payloads.
	CacheDir string `json:"cacheDir"`
}

type TVMazeSettings struct {
	BaseURL        string `json:"baseUrl"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type LogConfig struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSize"` // megabytes
	MaxBackups int    `json:"maxBackups"`
	MaxAge     int    `json:"maxAge"` // days
	Compress   bool   `json:"compress"`
}

// DatabasePath returns the location of the tracking database.
func (s Settings) DatabasePath() string {
	return filepath.Join(s.Storage.DataDir, "tracking.db")
}

func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			Host: "0.0.0.0",
			Port: 8585,
		},
		Storage: StorageSettings{
			DataDir:  "data",
			CacheDir: filepath.Join("data", "cache"),
		},
		TVMaze: TVMazeSettings{
			BaseURL:        "https://api.tvmaze.com",
			TimeoutSeconds: 15,
		},
		Log: LogConfig{
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// Manager loads and saves the settings file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures the parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads the settings file from disk or creates defaults if missing.
// Zero-valued fields are filled in from the defaults so older files keep
// working after new settings are added.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}

	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	var settings Settings
	if err := json.NewDecoder(f).Decode(&settings); err != nil {
		return Settings{}, err
	}
	applyDefaults(&settings)
	return settings, nil
}

func applyDefaults(s *Settings) {
	defaults := DefaultSettings()
	if s.Server.Port == 0 {
		s.Server.Port = defaults.Server.Port
	}
	if s.Storage.DataDir == "" {
		s.Storage.DataDir = defaults.Storage.DataDir
	}
	if s.Storage.CacheDir == "" {
		s.Storage.CacheDir = defaults.Storage.CacheDir
	}
	if s.TVMaze.BaseURL == "" {
		s.TVMaze.BaseURL = defaults.TVMaze.BaseURL
	}
	if s.TVMaze.TimeoutSeconds == 0 {
		s.TVMaze.TimeoutSeconds = defaults.TVMaze.TimeoutSeconds
	}
	if s.Log.MaxSize == 0 {
		s.Log.MaxSize = defaults.Log.MaxSize
	}
	if s.Log.MaxBackups == 0 {
		s.Log.MaxBackups = defaults.Log.MaxBackups
	}
	if s.Log.MaxAge == 0 {
		s.Log.MaxAge = defaults.Log.MaxAge
	}
}

// Save writes the settings file atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}
