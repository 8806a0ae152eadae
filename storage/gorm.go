package storage

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/wespark/certifier/models"
)

// GormStorage is the durable backend over postgres. Single-row atomicity is
// delegated to the database; multi-row sequences (the download backfill) are
// deliberately not wrapped in a transaction and fail step by step.
type GormStorage struct {
	db *gorm.DB
}

func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

// Users

func (s *GormStorage) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStorage) GetAllUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

func (s *GormStorage) CreateUser(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleGraduate
	}
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *GormStorage) UpdateUser(ctx context.Context, id uint, upd models.UserUpdate) (*models.User, error) {
	fields := map[string]any{}
	if upd.Email != nil {
		fields["email"] = *upd.Email
	}
	if upd.Name != nil {
		fields["name"] = *upd.Name
	}
	if upd.Password != nil {
		fields["password"] = *upd.Password
	}
	if upd.Role != nil {
		fields["role"] = *upd.Role
	}
	return applyUpdate[models.User](ctx, s.db, id, fields)
}

func (s *GormStorage) DeleteUser(ctx context.Context, id uint) (bool, error) {
	return deleteByID[models.User](ctx, s.db, id)
}

// Courses

func (s *GormStorage) GetCourse(ctx context.Context, id uint) (*models.Course, error) {
	var c models.Course
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStorage) GetCourseByTitle(ctx context.Context, title string) (*models.Course, error) {
	var c models.Course
	if err := s.db.WithContext(ctx).Where("LOWER(title) = LOWER(?)", title).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStorage) GetAllCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := s.db.WithContext(ctx).Find(&courses).Error; err != nil {
		return nil, translate(err)
	}
	return courses, nil
}

func (s *GormStorage) CreateCourse(ctx context.Context, course *models.Course) error {
	if course.Icon == "" {
		course.Icon = "fas fa-book"
	}
	return translate(s.db.WithContext(ctx).Create(course).Error)
}

func (s *GormStorage) UpdateCourse(ctx context.Context, id uint, upd models.CourseUpdate) (*models.Course, error) {
	fields := map[string]any{}
	if upd.Title != nil {
		fields["title"] = *upd.Title
	}
	if upd.Description != nil {
		fields["description"] = *upd.Description
	}
	if upd.Duration != nil {
		fields["duration"] = *upd.Duration
	}
	if upd.Icon != nil {
		fields["icon"] = *upd.Icon
	}
	if upd.Thumbnail != nil {
		fields["thumbnail"] = upd.Thumbnail
	}
	if upd.CertificateBackground != nil {
		fields["certificate_background"] = upd.CertificateBackground
	}
	return applyUpdate[models.Course](ctx, s.db, id, fields)
}

func (s *GormStorage) DeleteCourse(ctx context.Context, id uint) (bool, error) {
	return deleteByID[models.Course](ctx, s.db, id)
}

// Certificates

func (s *GormStorage) GetCertificate(ctx context.Context, id uint) (*models.Certificate, error) {
	var c models.Certificate
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStorage) GetCertificateByCertificateID(ctx context.Context, certificateID string) (*models.Certificate, error) {
	var c models.Certificate
	err := s.db.WithContext(ctx).
		Preload("User").Preload("Course").
		Where("certificate_id = ?", certificateID).
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	if c.User.ID == 0 || c.Course.ID == 0 {
		log.Printf("storage: certificate %s has dangling user/course reference, hiding from results", c.CertificateID)
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *GormStorage) GetCertificatesByUserID(ctx context.Context, userID uint) ([]models.Certificate, error) {
	var certs []models.Certificate
	err := s.db.WithContext(ctx).
		Preload("User").Preload("Course").
		Where("user_id = ?", userID).
		Find(&certs).Error
	if err != nil {
		return nil, translate(err)
	}
	return dropDangling(certs), nil
}

func (s *GormStorage) GetAllCertificates(ctx context.Context) ([]models.Certificate, error) {
	var certs []models.Certificate
	err := s.db.WithContext(ctx).
		Preload("User").Preload("Course").
		Find(&certs).Error
	if err != nil {
		return nil, translate(err)
	}
	return dropDangling(certs), nil
}

func dropDangling(certs []models.Certificate) []models.Certificate {
	out := certs[:0]
	for _, c := range certs {
		if c.User.ID == 0 || c.Course.ID == 0 {
			log.Printf("storage: certificate %s has dangling user/course reference, hiding from results", c.CertificateID)
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *GormStorage) CreateCertificate(ctx context.Context, cert *models.Certificate) error {
	return translate(s.db.WithContext(ctx).Omit("User", "Course").Create(cert).Error)
}

func (s *GormStorage) UpdateCertificate(ctx context.Context, id uint, upd models.CertificateUpdate) (*models.Certificate, error) {
	fields := map[string]any{}
	if upd.CompletionDate != nil {
		fields["completion_date"] = *upd.CompletionDate
	}
	if upd.City != nil {
		fields["city"] = upd.City
	}
	if upd.Hash != nil {
		fields["hash"] = upd.Hash
	}
	if upd.VerifyID != nil {
		fields["verify_id"] = upd.VerifyID
	}
	if upd.PDFPath != nil {
		fields["pdf_path"] = upd.PDFPath
	}
	return applyUpdate[models.Certificate](ctx, s.db, id, fields)
}

func (s *GormStorage) UpdateCertificateHash(ctx context.Context, id uint, hash string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Certificate{}).
		Where("id = ?", id).
		Update("hash", hash)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStorage) DeleteCertificate(ctx context.Context, id uint) (bool, error) {
	return deleteByID[models.Certificate](ctx, s.db, id)
}

// Magic links

func (s *GormStorage) CreateMagicLink(ctx context.Context, link *models.MagicLink) error {
	return translate(s.db.WithContext(ctx).Create(link).Error)
}

func (s *GormStorage) GetMagicLink(ctx context.Context, token string) (*models.MagicLink, error) {
	var l models.MagicLink
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&l).Error; err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

// UseMagicLink consumes a token atomically; the used = false predicate makes
// the UPDATE a no-op for a token that was already consumed, so exactly one of
// two racing verifications reports an affected row.
func (s *GormStorage) UseMagicLink(ctx context.Context, token string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.MagicLink{}).
		Where("token = ? AND used = ?", token, false).
		Update("used", true)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStorage) CleanExpiredMagicLinks(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("used = ? OR expires_at < NOW()", true).
		Delete(&models.MagicLink{})
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}

// Statistics

func (s *GormStorage) GetUserStats(ctx context.Context) (*models.UserStats, error) {
	var stats models.UserStats
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, translate(err)
	}
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleGraduate).Count(&stats.ActiveUsers).Error; err != nil {
		return nil, translate(err)
	}
	if err := db.Model(&models.Certificate{}).Count(&stats.TotalCertificates).Error; err != nil {
		return nil, translate(err)
	}
	return &stats, nil
}

func (s *GormStorage) GetCourseStats(ctx context.Context) (*models.CourseStats, error) {
	var stats models.CourseStats
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Course{}).Count(&stats.TotalCourses).Error; err != nil {
		return nil, translate(err)
	}
	if err := db.Model(&models.Certificate{}).Count(&stats.TotalEnrollments).Error; err != nil {
		return nil, translate(err)
	}
	return &stats, nil
}

// applyUpdate merges non-empty field maps into the row, then reloads it.
// An empty map still verifies existence so callers get NotFound semantics.
func applyUpdate[T any](ctx context.Context, db *gorm.DB, id uint, fields map[string]any) (*T, error) {
	var row T
	if err := db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, translate(err)
	}
	if len(fields) > 0 {
		if err := db.WithContext(ctx).Model(&row).Updates(fields).Error; err != nil {
			return nil, translate(err)
		}
	}
	if err := db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func deleteByID[T any](ctx context.Context, db *gorm.DB, id uint) (bool, error) {
	var row T
	res := db.WithContext(ctx).Delete(&row, id)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}
