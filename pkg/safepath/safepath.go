// Package safepath resolves untrusted relative paths against a trusted root
// directory and proves containment after resolving symlinks and dot segments.
package safepath

import (
	"fmt"
	"path/filepath"
	"strings"

	"bincollect/pkg/apperror"
)

// Resolver проверяет, что путь не выходит за пределы корневого каталога.
// Проверка выполняется при каждом обращении: значение из БД тоже
// недоверенный ввод.
type Resolver struct {
	root string // канонический абсолютный корень
}

// NewResolver создаёт resolver для каталога root.
// Корень должен существовать: канонизация резолвит симлинки один раз здесь.
func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", root, err)
	}

	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("root %q is not accessible: %w", root, err)
	}

	return &Resolver{root: canonical}, nil
}

// Root возвращает канонический корень
func (r *Resolver) Root() string {
	return r.root
}

// Resolve превращает недоверенный относительный путь в проверенный
// абсолютный. Возвращает apperror с CodePathRejected, если канонизация
// не удалась или результат лежит вне корня.
func (r *Resolver) Resolve(untrusted string) (string, error) {
	// Ведущие разделители срезаем: абсолютный ввод трактуем как относительный
	trimmed := strings.TrimLeft(untrusted, "/\\")
	if trimmed == "" {
		return "", apperror.New(apperror.CodePathRejected, "empty path").
			WithDetails("path", untrusted)
	}

	joined := filepath.Join(r.root, filepath.FromSlash(trimmed))

	// EvalSymlinks заодно отсекает несуществующие пути
	canonical, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return "", apperror.Wrap(err, apperror.CodePathRejected, "path cannot be canonicalized").
			WithDetails("path", untrusted)
	}

	if canonical != r.root && !strings.HasPrefix(canonical, r.root+string(filepath.Separator)) {
		return "", apperror.New(apperror.CodePathRejected, "path escapes storage root").
			WithDetails("path", untrusted).
			WithDetails("resolved", canonical)
	}

	return canonical, nil
}
