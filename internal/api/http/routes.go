package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/senai134/medidor/internal/ingest"
	"github.com/senai134/medidor/internal/record"
	"github.com/senai134/medidor/internal/store"
)

// RegisterRoutes wires the HTTP handlers into the Fiber app.
//
// POST /data is the synchronous ingress; unlike the subscription listener it
// does not trigger a sink push (the periodic reconciliation job picks those
// records up). GET /data exposes the latest raw subscription payload. The
// /registro routes are the read/delete query API with the Portuguese
// response envelopes the dashboard and external tooling expect.
func RegisterRoutes(app *fiber.App, st store.Store, latest *ingest.LatestCache) {
	app.Post("/data", func(c *fiber.Ctx) error {
		payload, err := decodeBody(c.Body())
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Nenhum dado fornecido",
			})
		}

		rec, err := record.Normalize(payload, record.RequestKeys)
		if err != nil {
			var verr *record.ValidationError
			if errors.As(err, &verr) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": verr.Reason,
				})
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Falha ao processar os dados",
			})
		}

		saved, err := st.Insert(c.Context(), rec)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Falha ao processar os dados",
			})
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Data received successfully",
			"id":      saved.ID,
		})
	})

	app.Get("/data", func(c *fiber.Ctx) error {
		return c.JSON(latest.Get())
	})

	app.Get("/registro", func(c *fiber.Ctx) error {
		records, err := st.ListAll(c.Context())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Falha ao consultar os registros",
			})
		}
		return contentResponse(c, fiber.StatusOK, record.Views(records), "")
	})

	app.Get("/registro/:id", func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return notFoundResponse(c)
		}

		rec, err := st.Get(c.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return notFoundResponse(c)
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Falha ao consultar o registro",
			})
		}
		return contentResponse(c, fiber.StatusOK, rec.AsView(), "")
	})

	app.Delete("/registro/:id", func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return notFoundResponse(c)
		}

		rec, err := st.Delete(c.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return notFoundResponse(c)
			}
			return contentResponse(c, fiber.StatusBadRequest, fiber.Map{}, "Erro ao deletar")
		}
		return contentResponse(c, fiber.StatusOK, rec.AsView(), "Deletado com sucesso")
	})
}

// decodeBody parses the request body into a field map, keeping numbers as
// json.Number so the normalizer sees integer timestamps exactly.
func decodeBody(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty body")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, errors.New("empty payload")
	}
	return payload, nil
}

// contentResponse builds the registro/mensagem envelope shared by the query
// API routes.
func contentResponse(c *fiber.Ctx, status int, content any, mensagem string) error {
	body := fiber.Map{"registro": content}
	if mensagem != "" {
		body["mensagem"] = mensagem
	}
	return c.Status(status).JSON(body)
}

func notFoundResponse(c *fiber.Ctx) error {
	return contentResponse(c, fiber.StatusNotFound, fiber.Map{}, "Registro não encontrado")
}
