package local

import (
	"path"

	"github.com/housepower/redwatch/common"
)

type LocalConfig struct {
	DataDir  string `yaml:"data_dir" json:"data_dir"`
	DataFile string `yaml:"data_file" json:"data_file"`
	// NoSync skips the fsync after every snapshot, for tests only.
	NoSync bool `yaml:"no_sync" json:"no_sync"`
}

func (config *LocalConfig) Normalize() {
	config.DataDir = common.GetStringwithDefault(config.DataDir, SNAPSHOT_DIR_DEFAULT)
	config.DataFile = common.GetStringwithDefault(config.DataFile, SNAPSHOT_FILE_DEFAULT)
}

func (config *LocalConfig) Path() string {
	return path.Join(config.DataDir, config.DataFile)
}
