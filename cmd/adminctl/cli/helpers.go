package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/contentdesk/admin-api/internal/config"
	"github.com/contentdesk/admin-api/internal/database"
	"github.com/contentdesk/admin-api/internal/repository"
	"github.com/contentdesk/admin-api/internal/util"
)

// storeConfig is the subset of the server config the CLI needs. Token
// secrets are not required to manage accounts.
type storeConfig struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	BcryptCost  int    `env:"BCRYPT_COST" envDefault:"12"`
}

type store struct {
	db     *database.DB
	admins repository.AdminRepository
	hasher *util.PasswordHasher
}

func openStore(ctx context.Context) (*store, error) {
	var cfg storeConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, config.DBPingTimeout)
	defer cancel()
	if err := db.Ping(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	hasher := util.NewPasswordHasher(cfg.BcryptCost)
	return &store{
		db:     db,
		admins: repository.NewAdminRepository(db.DB, hasher),
		hasher: hasher,
	}, nil
}

func (s *store) Close() error {
	return s.db.Close()
}

// readPassword takes the flag value when set, otherwise the first line of in.
func readPassword(flagValue string, in io.Reader) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password is required (pass --password or pipe it on stdin)")
	}
	return password, nil
}

func commandContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, time.Minute)
}
