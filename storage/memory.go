package storage

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/wespark/certifier/models"
)

// MemoryStorage is the non-durable backend used when no DATABASE_URL is
// configured. All state is instance-scoped and mutex-guarded; Fiber runs
// handlers on real OS threads, so every map access takes the lock. Each
// returned record is a copy, so a read always sees a fully written row and
// callers cannot mutate stored state through aliases.
type MemoryStorage struct {
	mu sync.RWMutex

	users        map[uint]models.User
	courses      map[uint]models.Course
	certificates map[uint]models.Certificate
	magicLinks   map[string]models.MagicLink

	nextUserID        uint
	nextCourseID      uint
	nextCertificateID uint
	nextMagicLinkID   uint
}

func NewMemoryStorage() *MemoryStorage {
	s := &MemoryStorage{
		users:             make(map[uint]models.User),
		courses:           make(map[uint]models.Course),
		certificates:      make(map[uint]models.Certificate),
		magicLinks:        make(map[string]models.MagicLink),
		nextUserID:        1,
		nextCourseID:      1,
		nextCertificateID: 1,
		nextMagicLinkID:   1,
	}
	s.seed()
	return s
}

// seed installs deterministic sample data so demos and tests work without a
// database: one admin, three courses, one issued certificate.
func (s *MemoryStorage) seed() {
	now := time.Now()

	admin := models.User{
		ID:        s.nextUserID,
		Email:     "admin@wespark.io",
		Name:      "Admin User",
		Password:  strptr("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"), // "admin123"
		Role:      models.RoleAdmin,
		CreatedAt: now,
	}
	s.nextUserID++
	s.users[admin.ID] = admin

	seedCourses := []models.Course{
		{
			Title:                 "AI Design Sprint Bootcamp",
			Description:           "Advanced AI design methodologies and sprint techniques",
			Duration:              16,
			Icon:                  "fas fa-code",
			Thumbnail:             strptr("https://images.unsplash.com/photo-1677442136019-21780ecad995?w=400&h=200&fit=crop"),
			CertificateBackground: strptr("https://images.unsplash.com/photo-1586953208448-b95a79798f07?w=842&h=595&fit=crop"),
		},
		{
			Title:                 "Machine Learning Fundamentals",
			Description:           "Core concepts and practical applications of ML",
			Duration:              24,
			Icon:                  "fas fa-brain",
			Thumbnail:             strptr("https://images.unsplash.com/photo-1555255707-c07966088b7b?w=400&h=200&fit=crop"),
			CertificateBackground: strptr("https://images.unsplash.com/photo-1522202176988-66273c2fd55f?w=842&h=595&fit=crop"),
		},
		{
			Title:                 "UX Design Principles",
			Description:           "User-centered design methodologies and best practices",
			Duration:              8,
			Icon:                  "fas fa-palette",
			Thumbnail:             strptr("https://images.unsplash.com/photo-1561070791-2526d30994b5?w=400&h=200&fit=crop"),
			CertificateBackground: strptr("https://images.unsplash.com/photo-1558618047-3c8c76ca7d13?w=842&h=595&fit=crop"),
		},
	}
	for _, c := range seedCourses {
		c.ID = s.nextCourseID
		c.CreatedAt = now
		s.nextCourseID++
		s.courses[c.ID] = c
	}

	cert := models.Certificate{
		ID:             s.nextCertificateID,
		CertificateID:  "WS-2025-8A31F0",
		UserID:         admin.ID,
		CourseID:       1,
		IssuedAt:       now,
		CompletionDate: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		City:           strptr("Berlin"),
	}
	s.nextCertificateID++
	s.certificates[cert.ID] = cert
}

func strptr(s string) *string { return &s }

// Users

func (s *MemoryStorage) GetUser(_ context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStorage) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) GetAllUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *MemoryStorage) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	user.ID = s.nextUserID
	s.nextUserID++
	if user.Role == "" {
		user.Role = models.RoleGraduate
	}
	user.CreatedAt = time.Now()
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStorage) UpdateUser(_ context.Context, id uint, upd models.UserUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Email != nil {
		for _, other := range s.users {
			if other.ID != id && other.Email == *upd.Email {
				return nil, ErrDuplicate
			}
		}
		u.Email = *upd.Email
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Password != nil {
		u.Password = strptr(*upd.Password)
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	s.users[id] = u
	return &u, nil
}

func (s *MemoryStorage) DeleteUser(_ context.Context, id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return false, nil
	}
	delete(s.users, id)
	return true, nil
}

// Courses

func (s *MemoryStorage) GetCourse(_ context.Context, id uint) (*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStorage) GetCourseByTitle(_ context.Context, title string) (*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.courses {
		if strings.EqualFold(c.Title, title) {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) GetAllCourses(_ context.Context) ([]models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Course, 0, len(s.courses))
	for _, c := range s.courses {
		out = append(out, c)
	}
	return out, nil
}

func (s *MemoryStorage) CreateCourse(_ context.Context, course *models.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	course.ID = s.nextCourseID
	s.nextCourseID++
	if course.Icon == "" {
		course.Icon = "fas fa-book"
	}
	course.CreatedAt = time.Now()
	s.courses[course.ID] = *course
	return nil
}

func (s *MemoryStorage) UpdateCourse(_ context.Context, id uint, upd models.CourseUpdate) (*models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Title != nil {
		c.Title = *upd.Title
	}
	if upd.Description != nil {
		c.Description = *upd.Description
	}
	if upd.Duration != nil {
		c.Duration = *upd.Duration
	}
	if upd.Icon != nil {
		c.Icon = *upd.Icon
	}
	if upd.Thumbnail != nil {
		c.Thumbnail = strptr(*upd.Thumbnail)
	}
	if upd.CertificateBackground != nil {
		c.CertificateBackground = strptr(*upd.CertificateBackground)
	}
	s.courses[id] = c
	return &c, nil
}

func (s *MemoryStorage) DeleteCourse(_ context.Context, id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[id]; !ok {
		return false, nil
	}
	delete(s.courses, id)
	return true, nil
}

// Certificates

func (s *MemoryStorage) GetCertificate(_ context.Context, id uint) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.certificates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

// resolve fills in the holder and course of a certificate. A dangling
// reference hides the row from joined reads rather than erroring; the skip is
// logged so operators can spot the orphan.
func (s *MemoryStorage) resolve(cert models.Certificate) (models.Certificate, bool) {
	user, uok := s.users[cert.UserID]
	course, cok := s.courses[cert.CourseID]
	if !uok || !cok {
		log.Printf("storage: certificate %s has dangling user/course reference, hiding from results", cert.CertificateID)
		return cert, false
	}
	cert.User = user
	cert.Course = course
	return cert, true
}

func (s *MemoryStorage) GetCertificateByCertificateID(_ context.Context, certificateID string) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.certificates {
		if c.CertificateID == certificateID {
			resolved, ok := s.resolve(c)
			if !ok {
				return nil, ErrNotFound
			}
			return &resolved, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) GetCertificatesByUserID(_ context.Context, userID uint) ([]models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Certificate
	for _, c := range s.certificates {
		if c.UserID != userID {
			continue
		}
		if resolved, ok := s.resolve(c); ok {
			out = append(out, resolved)
		}
	}
	return out, nil
}

func (s *MemoryStorage) GetAllCertificates(_ context.Context) ([]models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Certificate, 0, len(s.certificates))
	for _, c := range s.certificates {
		if resolved, ok := s.resolve(c); ok {
			out = append(out, resolved)
		}
	}
	return out, nil
}

func (s *MemoryStorage) CreateCertificate(_ context.Context, cert *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.certificates {
		if c.CertificateID == cert.CertificateID {
			return ErrDuplicate
		}
	}
	cert.ID = s.nextCertificateID
	s.nextCertificateID++
	cert.IssuedAt = time.Now()
	stored := *cert
	stored.User = models.User{}
	stored.Course = models.Course{}
	s.certificates[cert.ID] = stored
	return nil
}

func (s *MemoryStorage) UpdateCertificate(_ context.Context, id uint, upd models.CertificateUpdate) (*models.Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.certificates[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.CompletionDate != nil {
		c.CompletionDate = *upd.CompletionDate
	}
	if upd.City != nil {
		c.City = strptr(*upd.City)
	}
	if upd.Hash != nil {
		c.Hash = strptr(*upd.Hash)
	}
	if upd.VerifyID != nil {
		c.VerifyID = strptr(*upd.VerifyID)
	}
	if upd.PDFPath != nil {
		c.PDFPath = strptr(*upd.PDFPath)
	}
	s.certificates[id] = c
	return &c, nil
}

func (s *MemoryStorage) UpdateCertificateHash(_ context.Context, id uint, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.certificates[id]
	if !ok {
		return false, nil
	}
	c.Hash = &hash
	s.certificates[id] = c
	return true, nil
}

func (s *MemoryStorage) DeleteCertificate(_ context.Context, id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.certificates[id]; !ok {
		return false, nil
	}
	delete(s.certificates, id)
	return true, nil
}

// Magic links

func (s *MemoryStorage) CreateMagicLink(_ context.Context, link *models.MagicLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.magicLinks[link.Token]; ok {
		return ErrDuplicate
	}
	link.ID = s.nextMagicLinkID
	s.nextMagicLinkID++
	link.CreatedAt = time.Now()
	s.magicLinks[link.Token] = *link
	return nil
}

func (s *MemoryStorage) GetMagicLink(_ context.Context, token string) (*models.MagicLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.magicLinks[token]
	if !ok {
		return nil, ErrNotFound
	}
	return &l, nil
}

// UseMagicLink consumes a token atomically: the transition unused -> used
// happens under the lock and an already-used token reports no row affected,
// so two racing verifications cannot both succeed.
func (s *MemoryStorage) UseMagicLink(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.magicLinks[token]
	if !ok || l.Used {
		return false, nil
	}
	l.Used = true
	s.magicLinks[token] = l
	return true, nil
}

func (s *MemoryStorage) CleanExpiredMagicLinks(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var purged int64
	for token, l := range s.magicLinks {
		if l.Used || l.Expired(now) {
			delete(s.magicLinks, token)
			purged++
		}
	}
	return purged, nil
}

// Statistics

func (s *MemoryStorage) GetUserStats(_ context.Context) (*models.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := &models.UserStats{
		TotalUsers:        int64(len(s.users)),
		TotalCertificates: int64(len(s.certificates)),
	}
	for _, u := range s.users {
		if u.Role == models.RoleGraduate {
			stats.ActiveUsers++
		}
	}
	return stats, nil
}

func (s *MemoryStorage) GetCourseStats(_ context.Context) (*models.CourseStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &models.CourseStats{
		TotalCourses:     int64(len(s.courses)),
		TotalEnrollments: int64(len(s.certificates)),
	}, nil
}
