package config

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// DefaultTemplateNames maps each message type to a template registered under
// the same name on the WhatsApp Business account.
func DefaultTemplateNames() map[string]string {
	return map[string]string{
		"invoice":                "invoice",
		"rentcall":               "rentcall",
		"rentcall_reminder":      "rentcall_reminder",
		"rentcall_last_reminder": "rentcall_last_reminder",
	}
}

// TemplateHolder serves the per-message-type WhatsApp template-name table
// from messaging.yml. The file is watched; edits land without a restart, so
// a renamed or re-approved template can be rolled out live.
type TemplateHolder struct {
	current atomic.Value // holds map[string]string
}

// NewTemplateHolder loads messaging.yml from the given search paths, or the
// standard locations when none are given. A missing file is not an error;
// the defaults apply.
func NewTemplateHolder(paths ...string) (*TemplateHolder, error) {
	v := viper.New()

	v.SetConfigName("messaging")
	v.SetConfigType("yml")
	if len(paths) == 0 {
		paths = []string{"/etc/rentstack", "."}
	}
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix("RENTSTACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for msgType, name := range DefaultTemplateNames() {
		v.SetDefault("whatsapp.templates."+msgType, name)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	table, err := templateTable(v)
	if err != nil {
		return nil, err
	}

	holder := &TemplateHolder{}
	holder.current.Store(table)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := templateTable(v)
		if err != nil {
			log.Printf("[messaging-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[messaging-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// Name returns the template for a message type. An unmapped type falls back
// to the type itself.
func (h *TemplateHolder) Name(msgType string) string {
	table := h.current.Load().(map[string]string)
	if name := table[msgType]; name != "" {
		return name
	}
	return msgType
}

func templateTable(v *viper.Viper) (map[string]string, error) {
	var configured map[string]string
	if err := v.UnmarshalKey("whatsapp.templates", &configured); err != nil {
		return nil, err
	}

	table := DefaultTemplateNames()
	for msgType, name := range configured {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("whatsapp.templates.%s cannot be empty", msgType)
		}
		table[strings.ToLower(msgType)] = name
	}
	return table, nil
}
