package mqtt

// Subscribe asks the broker for topic. Matching messages arrive on Inbound.
//
// A subscription lives as long as this Conn. After a reconnect the session
// subscribes again on the new one, so there is no restore list here.
func (c *Conn) Subscribe(topic string, qos byte) error {
	if err := c.ready(topic, qos); err != nil {
		return err
	}
	if err := await(c.client.Subscribe(topic, qos, c.deliver), ErrSubscribeFailed); err != nil {
		return err
	}
	c.logger.Debug("subscribed", "topic", topic, "qos", qos)
	return nil
}
