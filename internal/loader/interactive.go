package loader

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.eggybyte.com/egg/expressgen/core/errors"
	"go.eggybyte.com/egg/expressgen/core/log"
	"go.eggybyte.com/egg/expressgen/internal/appspec"
)

// state is one question of the interactive session.
type state int

const (
	askName state = iota
	askPort
	askSwagger
	askAddServices
	askServiceList
	done
)

func (s state) String() string {
	switch s {
	case askName:
		return "AskName"
	case askPort:
		return "AskPort"
	case askSwagger:
		return "AskSwagger"
	case askAddServices:
		return "AskAddServices"
	case askServiceList:
		return "AskServiceList"
	case done:
		return "Done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// session accumulates answers while the state machine runs.
type session struct {
	loader *Loader
	params appspec.Params
}

// step is the question and transition for one state. apply returns the next
// state, or a complaint that makes the same state ask again.
type step struct {
	question string
	def      string
	apply    func(s *session, answer string) (state, string)
}

var steps = map[state]step{
	askName: {
		question: "Application name",
		def:      appspec.DefaultName,
		apply: func(s *session, answer string) (state, string) {
			s.params.Name = answer
			return askPort, ""
		},
	},
	askPort: {
		question: "Port",
		def:      strconv.Itoa(appspec.DefaultPort),
		apply: func(s *session, answer string) (state, string) {
			port, err := strconv.Atoi(answer)
			if err != nil || port < 1 || port > 65535 {
				return askPort, fmt.Sprintf("%q is not a port; enter a number between 1 and 65535", answer)
			}
			s.params.Port = port
			return askSwagger, ""
		},
	},
	askSwagger: {
		question: "Swagger or OpenAPI file (blank to skip)",
		apply: func(s *session, answer string) (state, string) {
			if answer == "" {
				return askAddServices, ""
			}
			info, err := os.Stat(answer)
			if err != nil || info.IsDir() {
				return askSwagger, fmt.Sprintf("cannot read %s; enter a file path or leave blank", answer)
			}
			s.params.SwaggerSource = answer
			return askAddServices, ""
		},
	},
	askAddServices: {
		question: "Add cloud services? (y/n)",
		def:      "n",
		apply: func(s *session, answer string) (state, string) {
			switch strings.ToLower(answer) {
			case "y", "yes":
				return askServiceList, ""
			case "n", "no":
				return done, ""
			}
			return askAddServices, "answer y or n"
		},
	},
	askServiceList: {
		question: "Services, comma separated",
		apply: func(s *session, answer string) (state, string) {
			var ids []string
			for _, field := range strings.Split(answer, ",") {
				field = strings.TrimSpace(field)
				if field == "" {
					continue
				}
				id, err := s.loader.catalog.Canonical(field)
				if err != nil {
					return askServiceList, fmt.Sprintf("unknown service %q; choose from: %s",
						field, strings.Join(s.loader.catalog.IDs(), ", "))
				}
				ids = append(ids, id)
			}
			s.params.Services = ids
			return done, ""
		},
	},
}

// interview runs the question state machine until Done.
func (l *Loader) interview(ctx context.Context, in Input, p Prompter) (appspec.Params, error) {
	if !in.Interactive || p == nil {
		return appspec.Params{}, errors.Build(errors.CodeValidation).
			WithOp("loader.Load").
			WithMsg("no --headless or --spec payload given and prompting is disabled").
			WithField("headless").
			Err()
	}

	s := &session{loader: l, params: appspec.Params{Framework: in.Framework}}
	for current := askName; current != done; {
		if err := ctx.Err(); err != nil {
			return appspec.Params{}, errors.Wrap(errors.CodeCanceled, "loader.interview", err)
		}

		st := steps[current]
		answer, err := p.Ask(st.question, st.def)
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				return appspec.Params{}, errors.Build(errors.CodeValidation).
					WithOp("loader.interview").
					WithErr(err).
					WithMsgf("input ended while asking %s", current).
					Err()
			}
			return appspec.Params{}, errors.Wrap(errors.CodeInternal, "loader.interview", err)
		}

		answer = strings.TrimSpace(answer)
		if answer == "" {
			answer = st.def
		}
		next, complaint := st.apply(s, answer)
		if complaint != "" {
			p.Say("%s", complaint)
			l.logger.Debug("answer rejected", log.Str("state", current.String()))
		}
		current = next
	}
	return s.params, nil
}
