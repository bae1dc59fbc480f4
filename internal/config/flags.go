package config

import (
	"flag"
	"strconv"
	"strings"
)

type NetAddress struct {
	Host string
	Port int
}

func (a NetAddress) String() string {
	return a.Host + ":" + strconv.Itoa(a.Port)
}

func (a *NetAddress) Set(s string) error {
	hp := strings.Split(s, ":")
	a.Host = hp[0]
	if len(hp) == 2 {
		port, err := strconv.Atoi(hp[1])
		if err != nil {
			return err
		}
		a.Port = port
	} else {
		a.Port = 5173
	}
	return nil
}

// Flags содержит параметры командной строки сервера.
type Flags struct {
	Addr       *NetAddress
	ConfigPath string
}

// ParseFlags разбирает флаги. Пустой Addr означает, что адрес берется из файла.
func ParseFlags(fs *flag.FlagSet, args []string) (*Flags, error) {
	f := &Flags{}
	addr := &NetAddress{}
	fs.Var(addr, "a", "Net address host:port (overrides server.host/server.port)")
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config.yaml (overrides CONFIG_PATH)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if addr.Port != 0 || addr.Host != "" {
		f.Addr = addr
	}
	return f, nil
}

// Apply переносит значения флагов в конфигурацию.
func (f *Flags) Apply(cfg *Config) {
	if f == nil || f.Addr == nil {
		return
	}
	cfg.Server.Host = f.Addr.Host
	cfg.Server.Port = f.Addr.Port
}
