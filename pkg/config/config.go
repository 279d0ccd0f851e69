// Package config는 환경 변수 기반 설정 오버라이드를 제공합니다.
// 서비스는 YAML 파일을 먼저 읽고, 여기서 제공하는 Source로 배포 환경별 값을 덮어씁니다.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Source 설정 값 조회 인터페이스
type Source interface {
	IsSet(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetDuration(key string) time.Duration
	GetStringSlice(key string) []string
}

// viperSource는 viper로 Source를 구현합니다.
type viperSource struct {
	v *viper.Viper
}

func (s *viperSource) IsSet(key string) bool                { return s.v.IsSet(key) }
func (s *viperSource) GetString(key string) string          { return s.v.GetString(key) }
func (s *viperSource) GetInt(key string) int                { return s.v.GetInt(key) }
func (s *viperSource) GetBool(key string) bool              { return s.v.GetBool(key) }
func (s *viperSource) GetDuration(key string) time.Duration { return s.v.GetDuration(key) }
func (s *viperSource) GetStringSlice(key string) []string   { return s.v.GetStringSlice(key) }

// FromEnv는 "{PREFIX}_{SECTION}_{KEY}" 형태의 환경 변수를 읽는 Source를 생성합니다.
// 예: prefix가 payment이면 database.password 키는 PAYMENT_DATABASE_PASSWORD에서 읽습니다.
func FromEnv(prefix string) Source {
	v := viper.New()
	v.SetEnvPrefix(strings.ToUpper(prefix))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &viperSource{v: v}
}

// Override는 키가 설정된 경우에만 대상 값을 덮어씁니다.
func Override[T any](src Source, key string, target *T, get func(Source, string) T) {
	if src.IsSet(key) {
		*target = get(src, key)
	}
}

// 자주 쓰는 getter
var (
	String   = func(s Source, k string) string { return s.GetString(k) }
	Int      = func(s Source, k string) int { return s.GetInt(k) }
	Bool     = func(s Source, k string) bool { return s.GetBool(k) }
	Duration = func(s Source, k string) time.Duration { return s.GetDuration(k) }
)
