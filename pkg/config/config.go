// Package config는 YAML 설정 파일과 환경 변수를 합쳐 서비스 설정을 읽어옵니다.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// 설정 디렉토리 경로
const configDir = "configs"

// Source는 로드된 설정에 대한 읽기 전용 접근을 제공합니다.
type Source interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	IsSet(key string) bool
	Unmarshal(out interface{}) error
	File() string
}

type viperSource struct {
	v *viper.Viper
}

func (s *viperSource) GetString(key string) string { return s.v.GetString(key) }
func (s *viperSource) GetInt(key string) int       { return s.v.GetInt(key) }
func (s *viperSource) GetBool(key string) bool     { return s.v.GetBool(key) }
func (s *viperSource) IsSet(key string) bool       { return s.v.IsSet(key) }
func (s *viperSource) File() string                { return s.v.ConfigFileUsed() }

// Unmarshal은 전체 설정을 mapstructure 태그가 붙은 구조체로 디코딩합니다.
func (s *viperSource) Unmarshal(out interface{}) error {
	if err := s.v.Unmarshal(out); err != nil {
		return fmt.Errorf("설정 디코딩 실패: %w", err)
	}
	return nil
}

// Options는 Load 동작을 조정합니다.
type Options struct {
	// Defaults는 파일과 환경 변수 모두에 값이 없을 때 사용됩니다.
	Defaults map[string]interface{}
	// BindEnv는 파일에 없는 키도 환경 변수에서 읽을 수 있도록 등록할 키 목록입니다.
	BindEnv []string
}

// Load는 서비스 이름에 해당하는 설정 파일을 로드합니다.
//
// 탐색 순서: CONFIG_PATH(파일 또는 디렉토리) → configs/{APP_ENV}/ → configs/example/.
// 환경 변수는 {SERVICE}_ 접두사와 "." → "_" 치환 규칙으로 파일 값을 덮어씁니다.
func Load(serviceName string, opts Options) (Source, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(strings.ToUpper(serviceName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range opts.Defaults {
		v.SetDefault(key, value)
	}
	for _, key := range opts.BindEnv {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("환경 변수 바인딩 실패(%s): %w", key, err)
		}
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath != "" && filepath.Ext(configPath) != "" {
		// 파일 경로가 직접 지정된 경우
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("설정 파일 로드 실패: %w", err)
		}
		return &viperSource{v: v}, nil
	}
	if configPath == "" {
		configPath = filepath.Join(configDir, env)
	}

	v.SetConfigName(serviceName)
	v.AddConfigPath(configPath)
	v.AddConfigPath(filepath.Join(configDir, "example"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("설정 파일 로드 실패: %w", err)
	}

	return &viperSource{v: v}, nil
}
