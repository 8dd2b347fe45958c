package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/georgy7/code2fodt/internal/charset"
	"github.com/georgy7/code2fodt/internal/document"
	"github.com/georgy7/code2fodt/internal/git"
	"github.com/georgy7/code2fodt/internal/output"
	"github.com/georgy7/code2fodt/internal/pathorder"
	"github.com/georgy7/code2fodt/internal/render"
	"github.com/georgy7/code2fodt/internal/volume"
)

const uncleanMessage = "Unclean repositories are not supported."

// run prints the repository in the working directory.
func run(ctx context.Context, opts options, printer *output.Printer, logger *slog.Logger) error {
	repo := git.Repo{}

	clean, err := repo.IsClean(ctx)
	if err != nil {
		return err
	}
	if !clean {
		return output.NewUserError(uncleanMessage)
	}

	head, err := repo.Head(ctx)
	if err != nil {
		return err
	}

	tpl, err := document.Load(opts.templatePath)
	if err != nil {
		if errors.Is(err, document.ErrMalformedTemplate) || errors.Is(err, os.ErrNotExist) {
			return output.NewUserError(err.Error())
		}
		return output.NewSystemErrorWithCause(err.Error(), err)
	}

	files, err := repo.ListFiles(ctx)
	if err != nil {
		return err
	}
	filter, err := NewFilter(".", opts.include, opts.exclude)
	if err != nil {
		return output.NewUserError(err.Error())
	}
	files = pathorder.Order(filter.Apply(files))
	logger.Debug("Listed tracked files.", "count", len(files), "commit", head.Hash)

	var tokens *tokenCounter
	if opts.tokenReport {
		tokens, err = newTokenCounter(opts.tokenModel)
		if err != nil {
			return output.NewUserError(err.Error())
		}
	}

	resolver := charset.NewResolver(charset.NewAliasTable(), newProbe(opts.probe), logger)
	renderer := render.New(resolver, render.Options{
		TabSize:  opts.tabSize,
		Hash:     opts.hash,
		Overload: opts.overload,
	}, logger)

	pub := &publisher{
		out:      opts.out,
		template: tpl,
		title:    opts.title,
		subtitle: opts.shortDescription,
		head:     head,
		renderer: renderer,
		printer:  printer,
		logger:   logger,
		tokens:   tokens,
	}

	volumes, err := volume.Split(ctx, files, opts.threshold, pub)
	if err != nil {
		return err
	}

	var lines int
	for _, v := range volumes {
		lines += v.Lines
	}
	var size int64
	for _, w := range pub.written {
		size += w.size
	}
	printer.Info("%s files, %s lines, %d volume(s), %s.",
		humanize.Comma(int64(len(files))), humanize.Comma(int64(lines)), len(volumes), humanize.Bytes(uint64(size)))

	if tokens != nil {
		printer.Println(tokens.report())
	}
	return nil
}
