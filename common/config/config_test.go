package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

type staticSource struct {
	name   string
	values map[string]interface{}
}

func (s *staticSource) GetValue(key string) interface{} {
	v, ok := s.values[key]
	if !ok {
		return nil
	}
	return v
}

func (s *staticSource) Name() string { return s.name }

func TestDefaultsApply(t *testing.T) {
	m := NewManager()
	optStr := m.RegisterOption("test.str", "", "fallback")
	optInt := m.RegisterOption("test.int", "", 42)
	optBool := m.RegisterOption("test.bool", "", true)

	m.Load()

	assert.Equal(t, "fallback", optStr.GetString())
	assert.Equal(t, 42, optInt.GetInt())
	assert.True(t, optBool.GetBool())
}

func TestLaterSourcesWin(t *testing.T) {
	m := NewManager()
	opt := m.RegisterOption("test.value", "", "default")

	m.AddSource(&staticSource{name: "first", values: map[string]interface{}{"test.value": "from first"}})
	m.AddSource(&staticSource{name: "second", values: map[string]interface{}{"test.value": "from second"}})
	m.Load()

	assert.Equal(t, "from second", opt.GetString())
}

func TestStringCoercion(t *testing.T) {
	m := NewManager()
	optInt := m.RegisterOption("test.int", "", 0)
	optBool := m.RegisterOption("test.bool", "", false)

	m.AddSource(&staticSource{name: "static", values: map[string]interface{}{
		"test.int":  "123",
		"test.bool": "yes",
	}})
	m.Load()

	assert.Equal(t, 123, optInt.GetInt())
	assert.True(t, optBool.GetBool())
}

func TestEnvSourceKeyMapping(t *testing.T) {
	os.Setenv("CRYPTOBOT_TEST_OPTION", "hello")
	defer os.Unsetenv("CRYPTOBOT_TEST_OPTION")

	src := &EnvSource{}
	assert.Equal(t, "hello", src.GetValue("cryptobot.test_option"))
	assert.Nil(t, src.GetValue("cryptobot.missing_option"))
}
