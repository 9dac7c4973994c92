package db

import "github.com/egme/khlav-kalash/internal/models"

type Order = models.Order
