// Package branchctl переключает локальное окружение между ветками базы Neon.
package branchctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/RoGogDBD/gtryk-dashboard/internal/envfile"
	"github.com/RoGogDBD/gtryk-dashboard/internal/neon"
	"github.com/RoGogDBD/gtryk-dashboard/internal/validation"
	"github.com/go-playground/validator/v10"
	zlog "github.com/rs/zerolog/log"
)

// Пункты главного меню.
const (
	OptionSwitch = "Switch to existing branch"
	OptionCreate = "Create new branch"
	OptionList   = "List all branches"
	OptionDelete = "Delete branch"
	OptionReset  = "Reset branch from main"
	OptionExit   = "Exit"
)

var menuOptions = []string{OptionSwitch, OptionCreate, OptionList, OptionDelete, OptionReset, OptionExit}

// Branches операции над ветками.
type Branches interface {
	ListBranches(ctx context.Context) ([]neon.Branch, error)
	CreateBranch(ctx context.Context, name, parentID string) (neon.Branch, error)
	DeleteBranch(ctx context.Context, branchID string) error
	MainBranchID(ctx context.Context) (string, error)
	ResetFromMain(ctx context.Context, branch neon.Branch) (neon.Branch, error)
}

// Config параметры менеджера.
type Config struct {
	EnvPath string
	DBName  string
	// DBURL текущее значение NEON_DB_URL, нужно для вывода хоста ветки без endpoint.
	DBURL string
}

// Manager выполняет операции с ветками и переписывает .env.
type Manager struct {
	branches Branches
	prompt   Prompter
	out      io.Writer
	cfg      Config
	validate *validator.Validate
}

func NewManager(branches Branches, prompt Prompter, out io.Writer, cfg Config) *Manager {
	if cfg.DBName == "" {
		cfg.DBName = envfile.DefaultDB
	}
	return &Manager{
		branches: branches,
		prompt:   prompt,
		out:      out,
		cfg:      cfg,
		validate: validation.New(),
	}
}

// List печатает все ветки с их хостами.
func (m *Manager) List(ctx context.Context) error {
	branches, err := m.branches.ListBranches(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(m.out, "\nAll branches:")
	for _, b := range branches {
		fmt.Fprintf(m.out, "- %s (%s)\n", b.Name, m.hostOrUnknown(b))
	}
	return nil
}

// Switch переключает .env на существующую ветку.
func (m *Manager) Switch(ctx context.Context, name string) error {
	b, err := m.find(ctx, name)
	if err != nil {
		return err
	}
	if err := m.useBranch(b); err != nil {
		return err
	}
	fmt.Fprintf(m.out, "\n✅ Updated .env to use branch: %s\n", b.Name)
	return nil
}

// Create создает ветку от main и переключается на нее.
func (m *Manager) Create(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if err := m.validateName(name); err != nil {
		return err
	}
	mainID, err := m.branches.MainBranchID(ctx)
	if err != nil {
		return err
	}
	b, err := m.branches.CreateBranch(ctx, name, mainID)
	if err != nil {
		return err
	}
	if err := m.useBranch(b); err != nil {
		return err
	}
	fmt.Fprintf(m.out, "\n✅ Created and switched to new branch: %s\n", name)
	return nil
}

// Delete удаляет ветку. Ветку main удалить нельзя.
func (m *Manager) Delete(ctx context.Context, name string) error {
	if name == neon.MainBranch {
		return fmt.Errorf("cannot delete main branch: %w", neon.ErrMainBranch)
	}
	b, err := m.find(ctx, name)
	if err != nil {
		return err
	}
	if err := m.branches.DeleteBranch(ctx, b.ID); err != nil {
		return err
	}
	fmt.Fprintf(m.out, "\n✅ Deleted branch: %s\n", b.Name)
	return nil
}

// Reset пересоздает ветку от main и переключается на нее. Ветку main сбросить нельзя.
func (m *Manager) Reset(ctx context.Context, name string) error {
	if name == neon.MainBranch {
		return fmt.Errorf("cannot reset main branch: %w", neon.ErrMainBranch)
	}
	b, err := m.find(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintln(m.out, "Resetting branch from main...")
	nb, err := m.branches.ResetFromMain(ctx, b)
	if err != nil {
		return err
	}
	if err := m.useBranch(nb); err != nil {
		return err
	}
	fmt.Fprintf(m.out, "\n✅ Reset branch %s from main and updated connection\n", b.Name)
	return nil
}

// RunMenu интерактивное меню. Прерывание ввода завершает меню без ошибки.
func (m *Manager) RunMenu(ctx context.Context) error {
	fmt.Fprintln(m.out, "🌿 Neon Branch Manager")

	err := m.runMenu(ctx)
	if errors.Is(err, ErrAborted) {
		fmt.Fprintln(m.out, "Aborted")
		return nil
	}
	return err
}

func (m *Manager) runMenu(ctx context.Context) error {
	idx, err := m.prompt.Select(ctx, SelectConfig{Message: "Select an option:", Options: menuOptions})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(menuOptions) {
		fmt.Fprintln(m.out, "Invalid option")
		return nil
	}

	switch menuOptions[idx] {
	case OptionSwitch:
		b, ok, err := m.pickBranch(ctx, "Select branch:", false)
		if err != nil || !ok {
			return err
		}
		return m.Switch(ctx, b.Name)
	case OptionCreate:
		name, err := m.prompt.Input(ctx, InputConfig{Message: "Enter new branch name:", Validator: m.validateName})
		if err != nil {
			return err
		}
		return m.Create(ctx, name)
	case OptionList:
		return m.List(ctx)
	case OptionDelete:
		b, ok, err := m.pickBranch(ctx, "Select branch to delete:", true)
		if err != nil || !ok {
			return err
		}
		if ok, err := m.prompt.Confirm(ctx, fmt.Sprintf("Delete branch %s?", b.Name)); err != nil || !ok {
			return err
		}
		return m.Delete(ctx, b.Name)
	case OptionReset:
		b, ok, err := m.pickBranch(ctx, "Select branch to reset from main:", true)
		if err != nil || !ok {
			return err
		}
		if ok, err := m.prompt.Confirm(ctx, fmt.Sprintf("Reset branch %s from main? Its data will be lost.", b.Name)); err != nil || !ok {
			return err
		}
		return m.Reset(ctx, b.Name)
	}
	return nil
}

// pickBranch предлагает выбрать ветку. skipMain убирает main из списка.
func (m *Manager) pickBranch(ctx context.Context, message string, skipMain bool) (neon.Branch, bool, error) {
	branches, err := m.branches.ListBranches(ctx)
	if err != nil {
		return neon.Branch{}, false, err
	}

	var candidates []neon.Branch
	var options []string
	for _, b := range branches {
		if skipMain && b.Name == neon.MainBranch {
			continue
		}
		candidates = append(candidates, b)
		options = append(options, fmt.Sprintf("%s (%s)", b.Name, m.hostOrUnknown(b)))
	}
	if len(candidates) == 0 {
		fmt.Fprintln(m.out, "No branches available")
		return neon.Branch{}, false, nil
	}

	idx, err := m.prompt.Select(ctx, SelectConfig{Message: message, Options: options, PageSize: 15})
	if err != nil {
		return neon.Branch{}, false, err
	}
	if idx < 0 || idx >= len(candidates) {
		fmt.Fprintln(m.out, "Invalid branch selection")
		return neon.Branch{}, false, nil
	}
	return candidates[idx], true, nil
}

func (m *Manager) find(ctx context.Context, name string) (neon.Branch, error) {
	branches, err := m.branches.ListBranches(ctx)
	if err != nil {
		return neon.Branch{}, err
	}
	for _, b := range branches {
		if b.Name == name {
			return b, nil
		}
	}
	return neon.Branch{}, fmt.Errorf("%w: %s", neon.ErrBranchNotFound, name)
}

// useBranch записывает хост ветки в .env и запоминает новый NEON_DB_URL.
func (m *Manager) useBranch(b neon.Branch) error {
	host, err := neon.BranchHost(b, m.cfg.DBURL)
	if err != nil {
		return err
	}
	if err := envfile.UpdateDBURL(m.cfg.EnvPath, host, m.cfg.DBName); err != nil {
		return err
	}
	m.cfg.DBURL = envfile.FormatDBURL(host, m.cfg.DBName)
	zlog.Info().Str("branch", b.Name).Str("host", host).Str("env", m.cfg.EnvPath).Msg("NEON_DB_URL updated")
	return nil
}

func (m *Manager) hostOrUnknown(b neon.Branch) string {
	host, err := neon.BranchHost(b, m.cfg.DBURL)
	if err != nil {
		return "unknown endpoint"
	}
	return host
}

func (m *Manager) validateName(name string) error {
	if err := m.validate.Var(name, "notblank"); err != nil {
		return errors.New("branch name is required")
	}
	if err := m.validate.Var(name, "max=256,no_control"); err != nil {
		return fmt.Errorf("invalid branch name %q: at most 256 characters without control characters", name)
	}
	return nil
}
