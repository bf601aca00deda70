package article

import (
	"errors"
	"path"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	errPathNotRelative = validation.NewError("article.path.not_relative", "must be a relative path without '..' segments")
	errSHARequired     = validation.NewError("article.sha.required", "must be the current revision sha")
	errSamePath        = validation.NewError("article.rename.same_path", "must differ from old_path")
)

// relativePath 校验仓库相对路径：不以 / 开头、无 ..、无空段、已规范化。
var relativePath = validation.By(func(value any) error {
	p, _ := value.(string)
	if p == "" {
		return nil
	}
	if strings.HasPrefix(p, "/") || strings.Contains(p, "\\") || path.Clean(p) != p {
		return errPathNotRelative
	}
	for _, segment := range strings.Split(p, "/") {
		if segment == ".." || segment == "." || segment == "" {
			return errPathNotRelative
		}
	}
	return nil
})

var realSHA = validation.By(func(value any) error {
	sha, _ := value.(string)
	if isCreate(strings.TrimSpace(sha)) {
		return errSHARequired
	}
	return nil
})

// Validate 校验保存请求：路径与内容必填，路径必须是规范的相对路径。
func (r SaveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required, relativePath),
		validation.Field(&r.Content, validation.Required),
	)
}

// Validate 校验重命名请求，所有检查都在触达远端之前完成。
func (r RenameRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OldPath, validation.Required, relativePath),
		validation.Field(&r.NewPath, validation.Required, relativePath, validation.By(func(value any) error {
			if value.(string) == r.OldPath {
				return errSamePath
			}
			return nil
		})),
		validation.Field(&r.SHA, realSHA),
	)
}

type deleteRequest struct {
	Path string `json:"path"`
	SHA  string `json:"sha"`
}

func (r deleteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required, relativePath),
		validation.Field(&r.SHA, realSHA),
	)
}

func validatePath(p string) error {
	err := validation.Validate(p, validation.Required, relativePath)
	if err == nil {
		return nil
	}
	var verr validation.Error
	if errors.As(err, &verr) {
		return invalidArgument(errors.New("path: " + verr.Message()))
	}
	return invalidArgument(err)
}
