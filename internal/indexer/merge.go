package indexer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/richardsondev/unreal-archive/internal/content"
	"github.com/richardsondev/unreal-archive/internal/extract"
	"github.com/richardsondev/unreal-archive/internal/filetype"
	"github.com/richardsondev/unreal-archive/internal/incoming"
)

// merge carries the values a re-index must not lose from current into the
// freshly produced record. current is never modified.
func (ix *Indexer) merge(fresh, current *content.Record) *content.Record {
	if current == nil {
		fresh.FirstIndex = ix.clock.Now().UTC()
		return fresh
	}

	fresh.FirstIndex = current.FirstIndex
	if fresh.FirstIndex.IsZero() {
		fresh.FirstIndex = ix.clock.Now().UTC()
	}
	if fresh.VariationOf == "" {
		fresh.VariationOf = current.VariationOf
	}
	fresh.Deleted = current.Deleted

	downloads := append([]content.Download(nil), current.Downloads...)
	for _, d := range fresh.Downloads {
		if !current.HasDownload(d.URL) {
			downloads = append(downloads, d)
		}
	}
	fresh.Downloads = downloads

	attachments := append([]content.Attachment(nil), current.Attachments...)
	for _, a := range fresh.Attachments {
		if !hasAttachment(attachments, a.Name) {
			attachments = append(attachments, a)
		}
	}
	fresh.Attachments = attachments

	for k, v := range current.Links {
		if _, ok := fresh.Links[k]; !ok {
			if fresh.Links == nil {
				fresh.Links = map[string]string{}
			}
			fresh.Links[k] = v
		}
	}
	return fresh
}

func hasAttachment(list []content.Attachment, name string) bool {
	for _, a := range list {
		if strings.EqualFold(a.Name, name) {
			return true
		}
	}
	return false
}

func addDownload(r *content.Record, url string, repack bool) {
	if url == "" || r.HasDownload(url) {
		return
	}
	_, hasMain := r.MainDownload()
	r.Downloads = append(r.Downloads, content.Download{
		URL:    url,
		Main:   !repack && !hasMain,
		Repack: repack,
		State:  content.DownloadOK,
	})
}

// checkIn stores the submission, its repack and loose images under the
// record's content path. Storage problems are logged and do not fail the
// submission. A store that returns no URL disables check-in.
func (ix *Indexer) checkIn(ctx context.Context, in *incoming.Incoming, r *content.Record, log *incoming.Log) {
	if ix.store == nil {
		return
	}
	prefix := r.ContentPath()

	url, err := ix.store.Store(ctx, in.Submission.Path, prefix+r.OriginalFilename)
	if err != nil {
		log.Continue("failed to store submission", err)
		return
	}
	if url == "" {
		return
	}
	addDownload(r, url, false)
	log.Info(fmt.Sprintf("stored submission in %s", ix.store.Name()))

	name := extract.TrimArchiveSuffix(r.OriginalFilename)
	if name == r.OriginalFilename {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	repack, err := in.Repack(ctx, name)
	switch {
	case err != nil:
		log.Continue("failed to repack submission", err)
	case repack != "":
		url, err := ix.store.Store(ctx, repack, prefix+filepath.Base(repack))
		if err != nil {
			log.Continue("failed to store repack", err)
		} else {
			addDownload(r, url, true)
		}
	}

	for _, f := range in.Files(filetype.Image) {
		if f.InContainer() || hasAttachment(r.Attachments, f.Name()) {
			continue
		}
		url, err := ix.store.Store(ctx, f.DiskPath(), prefix+f.Name())
		if err != nil {
			log.Continue("failed to store image "+f.Name(), err)
			continue
		}
		r.Attachments = append(r.Attachments, content.Attachment{
			Type: content.AttachmentImage,
			Name: f.Name(),
			URL:  url,
		})
	}
}
