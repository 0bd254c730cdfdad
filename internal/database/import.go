package database

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mroshb/skill_swap/internal/models"
	"github.com/mroshb/skill_swap/pkg/errors"
	"github.com/mroshb/skill_swap/pkg/logger"
	"github.com/mroshb/skill_swap/pkg/utils"
	"github.com/xuri/excelize/v2"
)

// ImportResult summarizes a user import.
type ImportResult struct {
	Created int
	Skipped int
	Errors  []string
}

// ImportUsers reads users from the first sheet of an xlsx workbook. The first
// row is a header; columns are Display Name, Email, Telegram ID and Role, the
// last two optional. Rows whose email already exists are skipped.
func ImportUsers(ctx context.Context, r io.Reader, users UserStore) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	result := &ImportResult{}
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		line := i + 1

		user, err := userFromRow(row)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}

		_, err = users.GetUserByEmail(ctx, user.Email)
		if err == nil {
			result.Skipped++
			continue
		}
		if !errors.Is(err, errors.ErrCodeNotFound) {
			return result, err
		}

		if err := users.CreateUser(ctx, user); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		result.Created++
		logger.Debug("Imported user", "row", line, "user_id", user.ID)
	}

	logger.Info("User import finished", "created", result.Created, "skipped", result.Skipped, "errors", len(result.Errors))
	return result, nil
}

func userFromRow(row []string) (*models.User, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	user := &models.User{
		DisplayName: cell(0),
		Email:       strings.ToLower(cell(1)),
		Role:        strings.ToLower(cell(3)),
	}
	if user.DisplayName == "" || user.Email == "" {
		return nil, fmt.Errorf("display name and email are required")
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.Role != models.RoleUser && user.Role != models.RoleAdmin {
		return nil, fmt.Errorf("unknown role %q", user.Role)
	}

	if raw := cell(2); raw != "" {
		tgID, err := strconv.ParseInt(utils.NormalizeDigits(raw), 10, 64)
		if err != nil || tgID <= 0 {
			return nil, fmt.Errorf("invalid telegram id %q", raw)
		}
		user.TelegramID = &tgID
	}

	return user, nil
}
