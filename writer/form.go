package writer

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	pe "wuyrush.io/chronos/errors"
	md "wuyrush.io/chronos/models"
)

// processParts streams the capsule form through ps, one processor per part, in the order the customization form
// lays its fields out (multipart bodies keep DOM tree order). Parts beyond the ones asked for are never buffered.
func processParts(r *multipart.Reader, ps ...partProcessor) *pe.Err {
	for _, p := range ps {
		if err := p(r); err != nil {
			return err
		}
	}
	return nil
}

type partProcessor func(*multipart.Reader) *pe.Err

// rejectHoneypot reads the honeypot field that leads every capsule form. Browsers leave it empty since it is
// hidden from visitors; any value marks the form as filled in by a bot.
func rejectHoneypot(trap string) partProcessor {
	return func(r *multipart.Reader) *pe.Err {
		part, err := r.NextPart()
		if err != nil {
			if err == io.EOF {
				log.Error("capsule form ended before the honeypot field")
			} else {
				log.WithError(err).Error("error reading honeypot field")
			}
			return pe.NewBadInput("error processing capsule form").WithCause(err)
		}
		defer part.Close()
		if name := part.FormName(); name != trap {
			log.Errorf("capsule form starts with %s instead of the honeypot field", name)
			return pe.NewBadInput("error processing capsule form")
		}
		if _, err := io.ReadAll(newCappedReader(part, 0)); err != nil {
			if v, ok := pe.As(err); ok && v.Code == pe.ErrCodeOversized {
				return pe.NewSpam()
			}
			log.WithError(err).Error("error reading honeypot field")
			return pe.NewBadInput("error processing capsule form").WithCause(err)
		}
		return nil
	}
}

type fieldCfg struct {
	FormName   string                                 // form field name to process
	LimitBytes int64                                  // form field value size limit in bytes
	Process    func(string, *md.CapsuleDraft) *pe.Err // logic to parse form field value
}

// field generates logic to process an individual non-file form field
func field(d *md.CapsuleDraft, cfg fieldCfg) partProcessor {
	return func(r *multipart.Reader) *pe.Err {
		part, err := r.NextPart()
		if err != nil {
			return pe.NewBadInput(fmt.Sprintf("failed to find form field %s", cfg.FormName)).WithCause(err)
		}
		defer part.Close()
		if part.FormName() != cfg.FormName {
			return pe.NewBadInput(fmt.Sprintf("expected form field %s, got %s", cfg.FormName, part.FormName()))
		}
		b, err := io.ReadAll(newCappedReader(part, cfg.LimitBytes))
		if err != nil {
			if v, ok := pe.As(err); ok && v.Code == pe.ErrCodeOversized {
				return v.WithMsg(fmt.Sprintf("got oversized data for form field %s", cfg.FormName))
			}
			return pe.NewBadInput(fmt.Sprintf("failed to read value of form field %s", cfg.FormName)).WithCause(err)
		}
		return cfg.Process(strings.TrimSpace(string(b)), d)
	}
}

// parseDetails reads capsule content. Fields are only parsed here; validation happens once the draft is
// customized.
func parseDetails(d *md.CapsuleDraft, titleMax, messageMax int64) partProcessor {
	const urlMax = 1 << 11
	return func(r *multipart.Reader) *pe.Err {
		return processParts(r,
			field(d, fieldCfg{
				FormName:   "title",
				LimitBytes: titleMax,
				Process: func(s string, d *md.CapsuleDraft) *pe.Err {
					d.Title = s
					return nil
				},
			}),
			field(d, fieldCfg{
				FormName:   "message",
				LimitBytes: messageMax,
				Process: func(s string, d *md.CapsuleDraft) *pe.Err {
					d.Message = s
					return nil
				},
			}),
			field(d, fieldCfg{
				FormName:   "date",
				LimitBytes: len64(md.DateLayout),
				Process: func(s string, d *md.CapsuleDraft) *pe.Err {
					d.OccursOn = s
					return nil
				},
			}),
			field(d, fieldCfg{
				FormName:   "author",
				LimitBytes: 1 << 8,
				Process: func(s string, d *md.CapsuleDraft) *pe.Err {
					d.Author = s
					return nil
				},
			}),
			field(d, fieldCfg{
				FormName:   "anonymous",
				LimitBytes: 5,
				Process: func(s string, d *md.CapsuleDraft) *pe.Err {
					if s == "" {
						d.IsAnonymous = false
						return nil
					}
					anon, err := strconv.ParseBool(s)
					if err != nil {
						return pe.NewBadInput("invalid anonymous value").WithCause(err)
					}
					d.IsAnonymous = anon
					return nil
				},
			}),
			field(d, fieldCfg{
				FormName:   "image-url",
				LimitBytes: urlMax,
				Process: func(s string, d *md.CapsuleDraft) *pe.Err {
					d.ImageURL = s
					return nil
				},
			}),
			field(d, fieldCfg{
				FormName:   "logo-url",
				LimitBytes: urlMax,
				Process: func(s string, d *md.CapsuleDraft) *pe.Err {
					d.LogoURL = s
					return nil
				},
			}),
			field(d, fieldCfg{
				FormName:   "external-link",
				LimitBytes: urlMax,
				Process: func(s string, d *md.CapsuleDraft) *pe.Err {
					d.ExternalLink = s
					return nil
				},
			}),
		)
	}
}

func len64(s string) int64 {
	return int64(len(s))
}

// cappedReader fails with an Oversized error as soon as more than max bytes come out of r, so a capsule field
// sitting exactly at its limit still reads fine
type cappedReader struct {
	r    io.Reader
	left int64 // max plus one sentinel byte
}

func newCappedReader(r io.Reader, max int64) *cappedReader {
	return &cappedReader{r: r, left: max + 1}
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if int64(len(p)) > c.left {
		p = p[:c.left]
	}
	n, err := c.r.Read(p)
	c.left -= int64(n)
	if c.left <= 0 {
		return 0, pe.NewOversized()
	}
	return n, err
}
