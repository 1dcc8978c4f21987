package server

import (
	"net/http"

	"github.com/btcsuite/websocket"
	"github.com/gin-gonic/gin"
	"github.com/lmxdawn/ethwallet/types"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	// Origin 已经由 Cors 按白名单检查
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// TransactionWs 发起转账并通过 websocket 推送每次状态变化
// @Tags 交易
// @Summary websocket 推送提交进度，最后一条消息 done 为 true
// @Param to query string true "接收者"
// @Param amount query string true "数量，单位 ETH"
// @Router /ws/transaction [get]
func TransactionWs(c *gin.Context) {
	var q TransactionReq
	if err := c.ShouldBindQuery(&q); err != nil {
		HandleValidatorError(c, err)
		return
	}
	e, _ := currentEngine(c)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Info().Msgf("Ws UpGrader err is %s", err.Error())
		return
	}
	defer ws.Close()

	write := func(msg WsMessage) {
		if err := ws.WriteJSON(msg); err != nil {
			log.Info().Msgf("ws WriteMessage err is %s", err.Error())
		}
	}

	rec, err := e.SubmitEther(c.Request.Context(), q.To, q.Amount, func(rec types.TransactionRecord) {
		write(WsMessage{
			Code:        OK.Code,
			Message:     string(rec.Status),
			Transaction: newTransactionRes(&rec),
		})
	})

	final := WsMessage{Done: true}
	if err != nil {
		final.Code, final.Message = DecodeErr(err)
		final.Data = errorData(err)
	} else {
		final.Code = OK.Code
		final.Message = string(rec.Status)
		final.Transaction = newTransactionRes(rec)
	}
	write(final)
}
