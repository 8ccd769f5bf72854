package sqlite

import (
	"context"
	"fmt"

	"github.com/vovakirdan/collabspace-server/internal/store"
)

// ==== WorkspaceStore implementation ====

const workspaceColumns = `w.id, w.name, w.owner_id, w.notepad_content, w.is_live, w.created_at, w.updated_at`

func scanWorkspace(row interface{ Scan(...any) error }) (*store.Workspace, error) {
	var ws store.Workspace
	if err := row.Scan(
		&ws.ID,
		&ws.Name,
		&ws.OwnerID,
		&ws.NotepadContent,
		&ws.IsLive,
		&ws.CreatedAt,
		&ws.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ws, nil
}

// CreateWorkspace creates a workspace owned by ownerID with the owner as sole member.
func (s *SQLiteStore) CreateWorkspace(ctx context.Context, id, name string, ownerID int64) (*store.Workspace, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	query := `
		INSERT INTO workspaces (id, name, owner_id)
		VALUES (?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query, id, name, ownerID); err != nil {
		return nil, fmt.Errorf("insert workspace: %w", err)
	}

	memberQuery := `
		INSERT INTO workspace_members (workspace_id, user_id)
		VALUES (?, ?)
	`
	if _, err := tx.ExecContext(ctx, memberQuery, id, ownerID); err != nil {
		return nil, fmt.Errorf("add owner to members: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.GetWorkspace(ctx, id)
}

// GetWorkspace retrieves a workspace with its members.
func (s *SQLiteStore) GetWorkspace(ctx context.Context, id string) (*store.Workspace, error) {
	query := `SELECT ` + workspaceColumns + ` FROM workspaces w WHERE w.id = ?`
	ws, err := scanWorkspace(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound("workspace", err)
	}

	members, err := s.listWorkspaceMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	ws.MemberIDs = members

	return ws, nil
}

// SaveWorkspace overwrites name, notepad and live flag, and adds any new members.
// Existing members are never removed, even if MemberIDs omits them.
// The owner is always kept as a member.
func (s *SQLiteStore) SaveWorkspace(ctx context.Context, ws *store.Workspace) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	query := `
		UPDATE workspaces
		SET name = ?, notepad_content = ?, is_live = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := tx.ExecContext(ctx, query, ws.Name, ws.NotepadContent, ws.IsLive, ws.ID)
	if err != nil {
		return fmt.Errorf("update workspace: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("workspace %s: %w", ws.ID, store.ErrNotFound)
	}

	// Membership is append-only here: members are never removed by a save.
	memberQuery := `
		INSERT OR IGNORE INTO workspace_members (workspace_id, user_id)
		VALUES (?, ?)
	`
	if _, err := tx.ExecContext(ctx, memberQuery, ws.ID, ws.OwnerID); err != nil {
		return fmt.Errorf("add owner to members: %w", err)
	}
	for _, userID := range ws.MemberIDs {
		if _, err := tx.ExecContext(ctx, memberQuery, ws.ID, userID); err != nil {
			return fmt.Errorf("add member %d: %w", userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListWorkspacesForUser lists workspaces userID is a member of, newest first.
func (s *SQLiteStore) ListWorkspacesForUser(ctx context.Context, userID int64) ([]*store.Workspace, error) {
	query := `
		SELECT ` + workspaceColumns + `
		FROM workspaces w
		JOIN workspace_members m ON m.workspace_id = w.id
		WHERE m.user_id = ?
		ORDER BY w.created_at DESC, w.id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query workspaces: %w", err)
	}

	var workspaces []*store.Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		workspaces = append(workspaces, ws)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate workspaces: %w", err)
	}
	// Release the single connection before loading members.
	rows.Close()

	for _, ws := range workspaces {
		members, err := s.listWorkspaceMembers(ctx, ws.ID)
		if err != nil {
			return nil, err
		}
		ws.MemberIDs = members
	}

	return workspaces, nil
}

func (s *SQLiteStore) listWorkspaceMembers(ctx context.Context, workspaceID string) ([]int64, error) {
	query := `
		SELECT user_id FROM workspace_members
		WHERE workspace_id = ?
		ORDER BY joined_at ASC, rowid ASC
	`
	members, err := s.queryIDs(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list members of %s: %w", workspaceID, err)
	}
	return members, nil
}
