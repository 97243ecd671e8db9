package repository

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"net/netip"

	"github.com/jmoiron/sqlx"
)

const privateArea = "内网IP"

// IPRepo resolves IPv4 addresses against the sys_ip range table.
type IPRepo struct {
	db *sqlx.DB
}

func NewIPRepo(db *sqlx.DB) *IPRepo {
	return &IPRepo{db: db}
}

// FindArea returns the area of the range containing ip. ok is false when ip
// is not IPv4 or no range matches.
func (r *IPRepo) FindArea(ctx context.Context, ip string) (area string, ok bool, err error) {
	addr, parseErr := netip.ParseAddr(ip)
	if parseErr != nil {
		return "", false, nil
	}
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsPrivate() {
		return privateArea, true, nil
	}
	if !addr.Is4() {
		return "", false, nil
	}

	b := addr.As4()
	num := int64(binary.BigEndian.Uint32(b[:]))
	err = r.db.GetContext(ctx, &area, `
		SELECT area FROM sys_ip
		WHERE ip_start_num <= $1 AND ip_end_num >= $1
		ORDER BY ip_start_num DESC
		LIMIT 1
	`, num)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return area, area != "", nil
}
