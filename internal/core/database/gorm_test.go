package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	cases := []struct {
		name, in, user, pass, want string
	}{
		{
			name: "native dsn untouched",
			in:   "root:pw@tcp(127.0.0.1:3306)/app?parseTime=true",
			want: "root:pw@tcp(127.0.0.1:3306)/app?parseTime=true",
		},
		{
			name: "url with jdbc params",
			in:   "jdbc:mysql://root:pw@localhost:3306/app?useSSL=false&serverTimezone=UTC",
			want: "root:pw@tcp(localhost:3306)/app?charset=utf8mb4&loc=UTC&parseTime=true&tls=false",
		},
		{
			name: "overrides win",
			in:   "mysql://a:b@db:3306/app?charset=latin1",
			user: "svc",
			pass: "secret",
			want: "svc:secret@tcp(db:3306)/app?charset=latin1&parseTime=true",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeMySQLDSN(tc.in, tc.user, tc.pass))
		})
	}
}

func TestSQLiteFile(t *testing.T) {
	assert.Equal(t, "data/app.db", SQLiteFile("file:data/app.db?_foreign_keys=on"))
	assert.Equal(t, "./local_database.db", SQLiteFile("./local_database.db"))
}

func TestNewGormSQLiteCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.db")
	db, err := NewGorm(Opts{Driver: "sqlite", DSN: path, LogLevel: "silent", Logger: zap.NewNop()})
	require.NoError(t, err)

	require.NoError(t, db.Exec("CREATE TABLE probe (id INTEGER)").Error)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestNewGormUnsupportedDriver(t *testing.T) {
	_, err := NewGorm(Opts{Driver: "oracle"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "root:****@tcp(db)/app", maskDSN("root:pw@tcp(db)/app"))
}
