package config

import "time"

type TDLibConfig struct {
	UseTestDc           bool   `yaml:"use_test_dc"`
	DatabaseDirectory   string `yaml:"database_directory"`
	FilesDirectory      string `yaml:"files_directory"`
	UseFileDatabase     bool   `yaml:"use_file_database"`
	UseChatInfoDatabase bool   `yaml:"use_chat_info_database"`
	UseMessageDatabase  bool   `yaml:"use_message_database"`
	UseSecretChats      bool   `yaml:"use_secret_chats"`
	SystemLanguageCode  string `yaml:"system_language_code"`
	DeviceModel         string `yaml:"device_model"`
	SystemVersion       string `yaml:"system_version"`
	ApplicationVersion  string `yaml:"application_version"`
	LogLevel            int    `yaml:"log_level"`
}

type HistoryConfig struct {
	PageSize  int32         `yaml:"page_size"`
	PageDelay time.Duration `yaml:"page_delay"`
	OnlyLocal bool          `yaml:"only_local"`
}

type ProtectConfig struct {
	Keywords   []string `yaml:"keywords"`
	MessageIDs []int64  `yaml:"message_ids"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type LoggerConfig struct {
	Level      string `yaml:"level"`
	FilePath   string `yaml:"file_path"`
	Production bool   `yaml:"production"`
}

type ReportConfig struct {
	Directory string `yaml:"directory"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"`
}
