/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/tomoncle/inkwell"
	"github.com/tomoncle/inkwell/database"
	"github.com/tomoncle/inkwell/model"
	"github.com/tomoncle/inkwell/repository"
	"github.com/tomoncle/inkwell/types"
)

const defaultConfigPath = "configs/inkwell.yaml"

const usage = `usage: inkwell [-config file] [-env-file file] <command> [flags]

commands:
  list    -page -size                          authors in id order
  find    -name -birth [-sort -dir -page -size] authors by name and/or birth date
  sorted  -sort -dir -page -size               authors ordered by a field
  get     -id                                  one author
  save    [-id] -name -birth                   insert or update an author
  update  -id -name -birth                     update an existing author
  delete  -id                                  remove an author
  seed    [-env]                               run SQL seed files
`

var errUsage = errors.New("invalid usage")

var commands = map[string]bool{
	"list": true, "find": true, "sorted": true, "get": true,
	"save": true, "update": true, "delete": true, "seed": true,
}

type command struct {
	flags *flag.FlagSet
	page  int
	size  int
	sort  string
	dir   string
	name  string
	birth string
	id    string
	env   string
}

func newCommand(name string) *command {
	c := &command{flags: flag.NewFlagSet(name, flag.ContinueOnError)}
	c.flags.IntVar(&c.page, "page", 1, "page number, starting at 1")
	c.flags.IntVar(&c.size, "size", 20, "page size")
	c.flags.StringVar(&c.sort, "sort", "", "sort field: id, name or birth_date")
	c.flags.StringVar(&c.dir, "dir", "asc", "sort direction: asc or desc")
	c.flags.StringVar(&c.name, "name", "", "author name, a case-insensitive substring when searching")
	c.flags.StringVar(&c.birth, "birth", "", "birth date as YYYY-MM-DD")
	c.flags.StringVar(&c.id, "id", "", "author id")
	c.flags.StringVar(&c.env, "env", "", "seed environment")
	return c
}

func (c *command) criteria() ([]types.Criteria, error) {
	var criteria []types.Criteria
	if c.name != "" {
		criteria = append(criteria, types.NewCriteria(repository.AuthorName, c.name))
	}
	if c.birth != "" {
		d, err := types.ParseDate(c.birth)
		if err != nil {
			return nil, types.NewValidationError("birth", err.Error())
		}
		criteria = append(criteria, types.NewCriteria(repository.AuthorBirthDate, d))
	}
	return criteria, nil
}

func (c *command) author() (*model.Author, error) {
	if strings.TrimSpace(c.name) == "" {
		return nil, types.NewValidationError("name", "name is required")
	}
	d, err := types.ParseDate(c.birth)
	if err != nil {
		return nil, types.NewValidationError("birth", err.Error())
	}
	return model.NewAuthor(c.id, c.name, d), nil
}

func (c *command) requireID() error {
	if c.id == "" {
		return types.NewValidationError("id", "id is required")
	}
	return nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("inkwell", flag.ContinueOnError)
	global.Usage = func() { _, _ = fmt.Fprint(global.Output(), usage) }
	configPath := global.String("config", "", "YAML config file (default "+defaultConfigPath+" when present)")
	envFile := global.String("env-file", ".env", "dotenv file loaded before the config")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errUsage
	}

	name := global.Arg(0)
	if !commands[name] {
		global.Usage()
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
	cmd := newCommand(name)
	if err := cmd.flags.Parse(global.Args()[1:]); err != nil {
		return err
	}

	if err := database.LoadDotEnv(*envFile); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if _, err := database.InitDB(cfg); err != nil {
		return err
	}
	defer func() {
		if err := database.CloseDB(); err != nil {
			logger.WithError(err).Warn("Failed to close database")
		}
	}()

	return dispatch(ctx, cmd, inkwell.NewAuthorService(), json.NewEncoder(out))
}

func loadConfig(path string) (*database.Config, error) {
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err != nil {
			return database.DefaultConfig(), nil
		}
		path = defaultConfigPath
	}
	return database.LoadConfig(path)
}

func dispatch(ctx context.Context, cmd *command, svc inkwell.Service[model.Author], enc *json.Encoder) error {
	switch cmd.flags.Name() {
	case "list":
		authors, err := svc.All(ctx, cmd.page, cmd.size)
		if err != nil {
			return err
		}
		return writeAll(enc, authors)

	case "find":
		criteria, err := cmd.criteria()
		if err != nil {
			return err
		}
		var authors []*model.Author
		if cmd.sort != "" {
			dir, err := types.ParseDirection(cmd.dir)
			if err != nil {
				return err
			}
			authors, err = svc.Search(ctx, criteria, cmd.sort, dir, cmd.page, cmd.size)
			if err != nil {
				return err
			}
		} else if authors, err = svc.List(ctx, criteria...); err != nil {
			return err
		}
		return writeAll(enc, authors)

	case "sorted":
		dir, err := types.ParseDirection(cmd.dir)
		if err != nil {
			return err
		}
		field := cmd.sort
		if field == "" {
			field = repository.AuthorID
		}
		authors, err := svc.Sorted(ctx, field, dir, cmd.page, cmd.size)
		if err != nil {
			return err
		}
		return writeAll(enc, authors)

	case "get":
		if err := cmd.requireID(); err != nil {
			return err
		}
		author, err := svc.Get(ctx, cmd.id)
		if err != nil {
			return err
		}
		if author == nil {
			return fmt.Errorf("author %q not found", cmd.id)
		}
		return enc.Encode(author)

	case "save":
		author, err := cmd.author()
		if err != nil {
			return err
		}
		if author.ID == "" {
			author.ID = uuid.NewString()
		}
		saved, err := svc.Save(ctx, author)
		if err != nil {
			return err
		}
		return writeAll(enc, saved)

	case "update":
		if err := cmd.requireID(); err != nil {
			return err
		}
		author, err := cmd.author()
		if err != nil {
			return err
		}
		updated, err := svc.Update(ctx, cmd.id, author)
		if err != nil {
			return err
		}
		if updated == nil {
			return fmt.Errorf("author %q not found", cmd.id)
		}
		return enc.Encode(updated)

	case "delete":
		if err := cmd.requireID(); err != nil {
			return err
		}
		deleted, err := svc.Delete(ctx, cmd.id)
		if err != nil {
			return err
		}
		return enc.Encode(map[string]interface{}{"id": cmd.id, "deleted": deleted})

	case "seed":
		return database.InitData(ctx, cmd.env)

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd.flags.Name())
	}
}

func writeAll(enc *json.Encoder, authors []*model.Author) error {
	for _, a := range authors {
		if err := enc.Encode(a); err != nil {
			return err
		}
	}
	return nil
}
