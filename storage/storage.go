package storage

import (
	"context"
	"errors"

	"github.com/wespark/certifier/models"
)

// ErrNotFound is returned by reads and updates when the target row does not
// exist. Handlers map it to 404; it is never logged as a server fault.
var ErrNotFound = errors.New("storage: record not found")

// ErrDuplicate is returned when a write breaks a uniqueness constraint
// (user email, certificate identifier, magic-link token).
var ErrDuplicate = errors.New("storage: duplicate key")

// Storage is the single data-access interface for all entities. Two
// implementations exist: the postgres-backed GormStorage and the volatile
// MemoryStorage. The backend is chosen once at startup; callers never branch
// on which one they hold.
type Storage interface {
	// Users
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, id uint, upd models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id uint) (bool, error)

	// Courses
	GetCourse(ctx context.Context, id uint) (*models.Course, error)
	GetCourseByTitle(ctx context.Context, title string) (*models.Course, error)
	GetAllCourses(ctx context.Context) ([]models.Course, error)
	CreateCourse(ctx context.Context, course *models.Course) error
	UpdateCourse(ctx context.Context, id uint, upd models.CourseUpdate) (*models.Course, error)
	DeleteCourse(ctx context.Context, id uint) (bool, error)

	// Certificates. The ByCertificateID / ByUserID / All reads resolve the
	// holder and course; rows whose user or course no longer exists are
	// omitted from results.
	GetCertificate(ctx context.Context, id uint) (*models.Certificate, error)
	GetCertificateByCertificateID(ctx context.Context, certificateID string) (*models.Certificate, error)
	GetCertificatesByUserID(ctx context.Context, userID uint) ([]models.Certificate, error)
	GetAllCertificates(ctx context.Context) ([]models.Certificate, error)
	CreateCertificate(ctx context.Context, cert *models.Certificate) error
	UpdateCertificate(ctx context.Context, id uint, upd models.CertificateUpdate) (*models.Certificate, error)
	UpdateCertificateHash(ctx context.Context, id uint, hash string) (bool, error)
	DeleteCertificate(ctx context.Context, id uint) (bool, error)

	// Magic links
	CreateMagicLink(ctx context.Context, link *models.MagicLink) error
	GetMagicLink(ctx context.Context, token string) (*models.MagicLink, error)
	UseMagicLink(ctx context.Context, token string) (bool, error)
	CleanExpiredMagicLinks(ctx context.Context) (int64, error)

	// Statistics
	GetUserStats(ctx context.Context) (*models.UserStats, error)
	GetCourseStats(ctx context.Context) (*models.CourseStats, error)
}
